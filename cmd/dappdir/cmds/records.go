package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"dappdir/internal/directory"
	"dappdir/internal/types"

	"github.com/goccy/go-yaml"
)

// Directory is the part of the directory service the CLI drives.
type Directory interface {
	ListAll(ctx context.Context) []types.Record
	ListFeatured(ctx context.Context) []types.Record
	Query(ctx context.Context, f *directory.Filter) []types.Record
	GetBySlug(ctx context.Context, slug string) (*types.Record, bool)
	Save(ctx context.Context, in types.RecordInput) (string, []string, error)
	Delete(ctx context.Context, slug string) error
	Seed(ctx context.Context) error
}

// LoadRecordFile reads record inputs from a YAML file. The document is either a single record or a
// sequence of records.
func LoadRecordFile(path string) ([]types.RecordInput, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRecords(b)
}

func ParseRecords(b []byte) ([]types.RecordInput, error) {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return nil, types.Err(types.ErrInvalidRequest, nil, "empty record file")
	}
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "[") {
		var many []types.RecordInput
		if err := yaml.Unmarshal(b, &many); err != nil {
			return nil, types.Err(types.ErrInvalidRequest, err, "parse record list")
		}
		return many, nil
	}
	var one types.RecordInput
	if err := yaml.Unmarshal(b, &one); err != nil {
		return nil, types.Err(types.ErrInvalidRequest, err, "parse record")
	}
	return []types.RecordInput{one}, nil
}

// PutRecords saves every record in the file at path, stopping at the first failure.
func PutRecords(ctx context.Context, dir Directory, path string, out io.Writer) error {
	inputs, err := LoadRecordFile(path)
	if err != nil {
		return err
	}
	for i, in := range inputs {
		slug, errs, err := dir.Save(ctx, in)
		if len(errs) > 0 {
			return types.Err(types.ErrInvalidRequest, nil, "record %d (%s): %s", i, in.Name, strings.Join(errs, "; "))
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "saved %s\n", slug)
	}
	return nil
}

// GetRecord prints the record stored under slug as YAML.
func GetRecord(ctx context.Context, dir Directory, slug string, out io.Writer) error {
	rec, ok := dir.GetBySlug(ctx, slug)
	if !ok {
		return types.Err(types.ErrNotFound, nil, "no record %q", slug)
	}
	b, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

// ListRecords prints one line per record, newest first. where is an optional JMESPath filter.
func ListRecords(ctx context.Context, dir Directory, featured bool, where string, out io.Writer) error {
	var recs []types.Record
	switch {
	case where != "":
		f, err := directory.CompileFilter(where)
		if err != nil {
			return err
		}
		recs = dir.Query(ctx, f)
	case featured:
		recs = dir.ListFeatured(ctx)
	default:
		recs = dir.ListAll(ctx)
	}
	for _, r := range recs {
		if featured && !r.IsFeatured {
			continue
		}
		star := " "
		if r.IsFeatured {
			star = "*"
		}
		_, _ = fmt.Fprintf(out, "%s %-24s %-32s %s\n", star, r.Slug, r.Name, r.UpdatedAt)
	}
	return nil
}

func DeleteRecord(ctx context.Context, dir Directory, slug string, out io.Writer) error {
	if err := dir.Delete(ctx, slug); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "deleted %s\n", slug)
	return nil
}

func Seed(ctx context.Context, dir Directory, out io.Writer) error {
	if err := dir.Seed(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "seeded %d records\n", len(directory.SampleRecords()))
	return nil
}
