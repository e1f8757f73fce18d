package dataset

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/choropleth/internal/fetcher"
	"github.com/sells-group/choropleth/internal/model"
)

const defaultConcurrency = 4

// Loader fetches and normalizes every configured dataset.
type Loader struct {
	fetcher     fetcher.Fetcher
	concurrency int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConcurrency bounds how many sources are fetched at once.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// NewLoader creates a Loader reading sources through f.
func NewLoader(f fetcher.Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{fetcher: f, concurrency: defaultConcurrency}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches every dataset in configs. Results keep configuration order.
// If any source cannot be fetched, no records are returned.
func (l *Loader) Load(ctx context.Context, configs []model.DatasetConfig) ([]model.DatasetRecord, error) {
	records := make([]model.DatasetRecord, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, cfg := range configs {
		g.Go(func() error {
			rec, err := l.LoadOne(gctx, cfg)
			if err != nil {
				return err
			}
			records[i] = *rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("datasets loaded", zap.String("component", "dataset"), zap.Int("count", len(records)))
	return records, nil
}

// LoadOne fetches and normalizes a single dataset.
func (l *Loader) LoadOne(ctx context.Context, cfg model.DatasetConfig) (*model.DatasetRecord, error) {
	log := zap.L().With(zap.String("component", "dataset"), zap.String("dataset", cfg.Key))

	body, err := l.fetcher.Download(ctx, cfg.Source)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset %s", cfg.Key)
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(&model.FetchError{URL: cfg.Source, Err: err}, "dataset %s", cfg.Key)
	}

	var header []string
	var rows [][]string
	if isXLSX(cfg.Source) {
		header, rows, err = fetcher.ReadXLSX(data, fetcher.XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(&model.ParseError{Source: cfg.Source, Err: err}, "dataset %s", cfg.Key)
		}
	} else {
		header, rows, err = fetcher.ReadCSVTable(ctx, bytes.NewReader(data), fetcher.CSVOptions{TrimSpace: true})
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrapf(ctx.Err(), "dataset %s", cfg.Key)
			}
			log.Warn("csv parse failed, using line split parser", zap.Error(err))
			header, rows = SplitTable(string(data))
		}
	}

	points := NormalizeRows(header, rows)
	nulls := 0
	for _, p := range points {
		if p.Value == nil {
			nulls++
		}
	}
	log.Debug("dataset parsed", zap.Int("rows", len(points)), zap.Int("null_values", nulls))

	return &model.DatasetRecord{
		Key:   cfg.Key,
		Name:  cfg.Name,
		Color: cfg.Color,
		Data:  points,
	}, nil
}

func isXLSX(source string) bool {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	return strings.EqualFold(path.Ext(source), ".xlsx")
}

// SplitTable is the best-effort parser used when a document is not valid
// CSV: lines split on newline, fields split on comma, no quoting.
func SplitTable(text string) ([]string, [][]string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	header := splitLine(lines[0])

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitLine(line))
	}
	return header, rows
}

func splitLine(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), ",")
	for i, f := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(f), `"`)
	}
	return fields
}
