package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"
)

//go:embed censored/*
var censoredFS embed.FS

// WordList is the parsed censored dictionary plus metadata for logging.
type WordList struct {
	Words     []string
	Languages []string
}

// LoadWordList reads every .txt file embedded under censored/, one file per
// language, one word per line. Blank lines and duplicates are dropped.
func LoadWordList() (*WordList, error) {
	entries, err := fs.ReadDir(censoredFS, "censored")
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	var languages []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		content, err := censoredFS.ReadFile("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" {
				continue
			}
			unique[strings.ToLower(word)] = struct{}{}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	list := &WordList{Languages: languages}
	for word := range unique {
		list.Words = append(list.Words, word)
	}
	return list, nil
}
