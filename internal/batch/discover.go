// Package batch drives extraction over a directory of filings: document
// discovery, concurrent processing, and run artifacts.
package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tenk-extract/internal/extract"
	"github.com/sells-group/tenk-extract/internal/groundtruth"
)

var documentExtensions = map[string]bool{
	".pdf":  true,
	".htm":  true,
	".html": true,
}

// DiscoverDocuments lists filings in inputDir named {TICKER}_*.pdf|htm|html.
// The ticker is the first underscore-delimited token of the file stem,
// uppercased. When truth is non-nil, files whose ticker has no ground-truth
// row are skipped with a warning. A positive limit caps the result after
// sorting by path.
func DiscoverDocuments(inputDir string, truth *groundtruth.Table, limit int) ([]extract.Document, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read input dir %s", inputDir)
	}

	var docs []extract.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !documentExtensions[ext] {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		ticker := stem
		if i := strings.Index(stem, "_"); i >= 0 {
			ticker = stem[:i]
		}
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			continue
		}

		if truth != nil {
			if _, ok := truth.Lookup(ticker); !ok {
				zap.L().Warn("skipping document without ground truth",
					zap.String("ticker", ticker),
					zap.String("file", name),
				)
				continue
			}
		}

		docs = append(docs, extract.Document{
			Path:   filepath.Join(inputDir, name),
			Ticker: ticker,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}
