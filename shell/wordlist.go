package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/domino14/tilegame/cache"
	"github.com/domino14/tilegame/config"
)

// WordList is a dictionary read from a plain text file with one word per
// line. Lines starting with # are ignored.
type WordList struct {
	Name  string
	words map[string]struct{}
}

func (wl *WordList) Check(ctx context.Context, words []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return lo.Filter(words, func(w string, _ int) bool {
		_, ok := wl.words[normWord(w)]
		return !ok
	}), nil
}

func normWord(w string) string {
	return strings.ToUpper(norm.NFC.String(strings.TrimSpace(w)))
}

func wordListLoadFunc(cfg *config.Config, key string) (any, error) {
	name := strings.TrimPrefix(key, "wordlist:")
	path := filepath.Join(cfg.GetString(config.ConfigDataPath), "dictionaries", name+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", name, err)
	}
	defer f.Close()
	wl := &WordList{Name: name, words: map[string]struct{}{}}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if w := normWord(line); w != "" {
			wl.words[w] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", name, err)
	}
	log.Debug().Str("path", path).Int("words", len(wl.words)).Msg("loaded word list")
	return wl, nil
}

// LoadWordList returns the word list <data-path>/dictionaries/<name>.txt.
func LoadWordList(cfg *config.Config, name string) (*WordList, error) {
	if name == "" {
		return nil, errors.New("game has no dictionary; pass -dictionary")
	}
	obj, err := cache.Load(cfg, "wordlist:"+name, wordListLoadFunc)
	if err != nil {
		return nil, err
	}
	wl, ok := obj.(*WordList)
	if !ok {
		return nil, errors.New("could not read word list from cache")
	}
	return wl, nil
}
