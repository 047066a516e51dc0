package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ishaangg/conference-agent/internal/attendee"
	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/internal/config"
	"github.com/Ishaangg/conference-agent/internal/engine"
	"github.com/Ishaangg/conference-agent/internal/enrich"
	"github.com/Ishaangg/conference-agent/internal/observability"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
	"github.com/Netflix/go-env"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sliceSource []attendee.Item

func (s sliceSource) Load(context.Context) ([]attendee.Item, error) { return s, nil }

type failingSource struct{}

func (failingSource) Load(context.Context) ([]attendee.Item, error) {
	return nil, errors.New("disk on fire")
}

type memorySink struct {
	records []classify.Record
}

func (m *memorySink) Store(_ context.Context, records []classify.Record) error {
	m.records = records
	return nil
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	opts := engine.DefaultOptions()
	opts.PacingDelay = 0
	e, err := engine.New(opts, engine.Deps{
		Enricher: enrich.EnricherFunc(func(ctx context.Context, item attendee.Item) (string, error) {
			return "notes", nil
		}),
		Classifier: classify.ClassifierFunc(func(ctx context.Context, prompt string) (string, error) {
			var recs []enrich.PromptRecord
			if err := json.Unmarshal([]byte(prompt[strings.Index(prompt, "["):]), &recs); err != nil {
				return "", err
			}
			out := make([]classify.Record, 0, len(recs))
			for _, r := range recs {
				out = append(out, classify.Record{PersonName: r.PersonName, Category: "Other", SubCategory: "Not a Lead", Organization: r.Organization, Domain: r.CompanyDomain})
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		}),
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func TestRun_EndToEndWithFakes(t *testing.T) {
	t.Parallel()

	items := sliceSource{
		attendee.New(attendee.Row{FirstName: "Ada", Email: "ada@acme.io"}),
		attendee.New(attendee.Row{FirstName: "Bo", Email: "bo@globex.com", Organization: "Globex"}),
		attendee.New(attendee.Row{Email: "no-at-sign"}),
		attendee.New(attendee.Row{FirstName: "Cy", Email: "cy@initech.org"}),
	}
	sink := &memorySink{}
	observed, logs := observer.New(zapcore.InfoLevel)

	res, err := Run(context.Background(), items, sink, newTestEngine(t), zap.New(observed))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.records) != 4 || len(res.Records) != 4 {
		t.Fatalf("expected 4 stored records, got %d (result %d)", len(sink.records), len(res.Records))
	}

	byName := map[string]classify.Record{}
	for _, r := range sink.records {
		byName[r.PersonName] = r
	}
	if got := byName["Ada"].Organization; got != "acme" {
		t.Fatalf("Ada organization = %q, want domain fallback acme", got)
	}
	if got := byName["Unknown"].Domain; got != attendee.UnknownDomain {
		t.Fatalf("Unknown domain = %q, want sentinel", got)
	}

	loaded := logs.FilterMessage("attendees loaded").All()
	if len(loaded) != 1 {
		t.Fatalf("expected one load log, got %d", len(loaded))
	}
	if id, _ := loaded[0].ContextMap()["runId"].(string); len(id) != 26 {
		t.Fatalf("expected a ULID run id, got %q", id)
	}
}

func TestRun_LoadErrorIsReturned(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), failingSource{}, &memorySink{}, newTestEngine(t), nil)
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestRecordFile_Store(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	err := RecordFile{Path: path}.Store(context.Background(), []classify.Record{
		{PersonName: "Ada L", Category: "Pharmaceutical", SubCategory: "Oncology", Organization: "Acme, Inc", Domain: "acme"},
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "person_name,category,sub_category,organization,domain\nAda L,Pharmaceutical,Oncology,\"Acme, Inc\",acme\n"
	if string(b) != want {
		t.Fatalf("unexpected csv:\n%s", b)
	}
}

func TestRecordFile_StoreErrors(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope", "results.csv")
	if err := (RecordFile{Path: missing}).Store(context.Background(), nil); err == nil {
		t.Fatalf("expected create error for %s", missing)
	}

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	err := RecordFile{Path: "/dev/full"}.Store(context.Background(), []classify.Record{{PersonName: "Ada L"}})
	if err == nil || !strings.Contains(err.Error(), "write results /dev/full") {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestNewEngine_ProviderSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		envs    env.EnvSet
		wantErr bool
	}{
		{name: "gemini for both", envs: env.EnvSet{"GEMINI_API_KEY": "g"}},
		{name: "openai and anthropic", envs: env.EnvSet{"ENRICH_PROVIDER": "openai", "OPENAI_API_KEY": "o", "CLASSIFY_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": "a"}},
		{name: "direct classification", envs: env.EnvSet{"SKIP_ENRICHMENT": "true", "CLASSIFY_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": "a"}},
		{name: "missing key", envs: env.EnvSet{"CLASSIFY_PROVIDER": "anthropic", "GEMINI_API_KEY": "g"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.LoadFrom(tt.envs, "")
			if err != nil {
				t.Fatalf("LoadFrom: %v", err)
			}
			e, err := NewEngine(context.Background(), cfg, zap.NewNop(), observability.NewMetrics())
			if tt.wantErr {
				if !core.IsKind(err, core.KindConfiguration) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil || e == nil {
				t.Fatalf("NewEngine: %v", err)
			}
		})
	}
}
