package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/koremd"
)

var errAmbiguous = errors.New("ambiguous reference")

// resolveFile finds a note by id, unique id prefix or exact name, in that order.
func resolveFile(app *koremd.App, ref string) (koremd.MarkdownFile, error) {
	if f, ok := app.Registry.Get(ref); ok {
		return f, nil
	}

	var matches []koremd.MarkdownFile
	for _, f := range app.Registry.Files() {
		if strings.HasPrefix(f.ID, ref) {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		for _, f := range app.Registry.Files() {
			if f.Name == ref {
				matches = append(matches, f)
			}
		}
	}

	switch len(matches) {
	case 0:
		return koremd.MarkdownFile{}, fmt.Errorf("no note matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return koremd.MarkdownFile{}, fmt.Errorf("%w: %q matches %d notes", errAmbiguous, ref, len(matches))
	}
}
