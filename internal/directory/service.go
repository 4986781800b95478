package directory

import (
	"context"
	"slices"
	"strings"
	"time"

	"dappdir/internal/metrics"
	"dappdir/internal/ports"
	"dappdir/internal/types"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	recordKeyPrefix = "record:"
	IndexKey        = "records:all"

	DefaultFetchConcurrency = 16

	EventUpserted = "record.upserted"
	EventDeleted  = "record.deleted"
)

// RecordKey is the KV key a record is persisted under.
func RecordKey(slug string) string {
	return recordKeyPrefix + slug
}

// Event is published after a successful write.
type Event struct {
	Type string `json:"type"`
	Slug string `json:"slug"`
	At   string `json:"at"`
}

// Service is the directory: records keyed by slug plus the index set of every slug.
// Writes are two independent store calls (record, then index) with no rollback, so readers
// tolerate index members whose record is gone.
type Service struct {
	store       ports.KVStore
	codec       Codec
	pub         ports.Publisher
	log         logrus.FieldLogger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

func WithCodec(c Codec) Option {
	return func(s *Service) { s.codec = c }
}

// WithPublisher sets where change events go. Without it no events are emitted.
func WithPublisher(p ports.Publisher) Option {
	return func(s *Service) { s.pub = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithFetchConcurrency bounds the parallel record fetches in ListAll. Values < 1 are ignored.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewService(store ports.KVStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		log:         logrus.StandardLogger(),
		concurrency: DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.log = s.log.WithField("component", "directory")
	return s
}

// ListAll returns every indexed record, most recently updated first. Index members without a record
// are skipped. Any store or decode error is logged and yields an empty list.
func (s *Service) ListAll(ctx context.Context) []types.Record {
	records, err := s.listAll(ctx)
	if err != nil {
		s.log.WithError(err).Error("Error getting all records")
		metrics.IncDegradedRead("list")
		return []types.Record{}
	}
	return records
}

func (s *Service) listAll(ctx context.Context) ([]types.Record, error) {
	slugs, err := s.store.SetMembers(ctx, IndexKey)
	if err != nil {
		return nil, err
	}
	if len(slugs) == 0 {
		return []types.Record{}, nil
	}

	fetched := make([]*types.Record, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			r, ok, err := s.get(gctx, slug)
			if err != nil {
				return err
			}
			if ok {
				fetched[i] = &r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]types.Record, 0, len(fetched))
	for _, r := range fetched {
		if r != nil {
			out = append(out, *r)
		}
	}
	slices.SortStableFunc(out, func(a, b types.Record) int {
		return types.ParseTimestamp(b.UpdatedAt).Compare(types.ParseTimestamp(a.UpdatedAt))
	})
	return out, nil
}

// ListFeatured is ListAll restricted to featured records, in the same order.
func (s *Service) ListFeatured(ctx context.Context) []types.Record {
	return filterRecords(s.ListAll(ctx), func(r types.Record) bool { return r.IsFeatured })
}

// Query is ListAll restricted to records matching f, in the same order.
func (s *Service) Query(ctx context.Context, f *Filter) []types.Record {
	return filterRecords(s.ListAll(ctx), f.Match)
}

func filterRecords(in []types.Record, keep func(types.Record) bool) []types.Record {
	out := make([]types.Record, 0, len(in))
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// GetBySlug looks up one record. Absent is a normal outcome; a store error is logged and reported as absent.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*types.Record, bool) {
	r, ok, err := s.get(ctx, slug)
	if err != nil {
		s.log.WithError(err).WithField("slug", slug).Error("Error getting record")
		metrics.IncDegradedRead("get")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &r, true
}

func (s *Service) get(ctx context.Context, slug string) (types.Record, bool, error) {
	b, ok, err := s.store.Get(ctx, RecordKey(slug))
	if err != nil || !ok {
		return types.Record{}, false, err
	}
	r, err := s.codec.Decode(b)
	if err != nil {
		return types.Record{}, false, types.Err(types.ErrDataStoreAccess, err, "decode record %s", slug)
	}
	return r, true, nil
}

// Upsert stores data under slug, then adds slug to the index. The slug argument always wins over data.Slug.
// A failure of the second step leaves the record written but unindexed.
func (s *Service) Upsert(ctx context.Context, slug string, data types.Record) (err error) {
	defer func() { metrics.ObserveMutation("upsert", err) }()
	data.Slug = slug
	b, err := s.codec.Encode(data)
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "encode record %s", slug)
	}
	if err = s.store.Set(ctx, RecordKey(slug), b); err != nil {
		s.log.WithError(err).WithField("slug", slug).Error("Error upserting record")
		return err
	}
	if err = s.store.SetAdd(ctx, IndexKey, slug); err != nil {
		s.log.WithError(err).WithField("slug", slug).Error("Error indexing record")
		return err
	}
	s.publish(ctx, EventUpserted, slug)
	return nil
}

// Delete removes the record, then its index entry. A failure of the second step leaves a dangling index
// member, which readers skip.
func (s *Service) Delete(ctx context.Context, slug string) (err error) {
	defer func() { metrics.ObserveMutation("delete", err) }()
	if err = s.store.Delete(ctx, RecordKey(slug)); err != nil {
		s.log.WithError(err).WithField("slug", slug).Error("Error deleting record")
		return err
	}
	if err = s.store.SetRemove(ctx, IndexKey, slug); err != nil {
		s.log.WithError(err).WithField("slug", slug).Error("Error unindexing record")
		return err
	}
	s.publish(ctx, EventDeleted, slug)
	return nil
}

// Stats computes aggregates over ListAll. Chains are counted case-insensitively, tags as-is.
func (s *Service) Stats(ctx context.Context) types.Stats {
	all := s.ListAll(ctx)
	chains := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, r := range all {
		for _, c := range r.Chains {
			chains[strings.ToLower(c)] = struct{}{}
		}
		for _, t := range r.Tags {
			tags[t] = struct{}{}
		}
	}
	return types.Stats{
		TotalApps:       len(all),
		TotalChains:     len(chains),
		TotalCategories: len(tags),
		LastUpdated:     types.Timestamp(timeNow()),
	}
}

// publish never fails the write it follows.
func (s *Service) publish(ctx context.Context, eventType, slug string) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(Event{Type: eventType, Slug: slug, At: types.Timestamp(timeNow())})
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal change event")
		return
	}
	if err := s.pub.PublishRaw(ctx, eventType, b); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"slug":  slug,
			"event": eventType,
		}).Warn("Failed to publish change event")
	}
}

var timeNow = time.Now

func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}
