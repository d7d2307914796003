// README: Benchmark test cases for the resolve flow; includes HTTP, DB, Redis, and performance checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

type resolveResp struct {
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields"`
	CanGenerate   bool     `json:"can_generate"`
	State         string   `json:"state"`
	SessionID     string   `json:"session_id"`
	Context       string   `json:"context"`
	Confidence    string   `json:"confidence"`
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB connection available",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "Redis connection available",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "Optionally apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				stmts := splitSQL(string(sql))
				for _, s := range stmts {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "Check tables from the migration file",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: server reachable",
			Focus: "API responds to requests",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			},
		},

		// Resolve flow
		conversationCase("Resolve: destination then dates", base, []turn{
			{say: "I want to visit Paris", wantState: "COLLECTING_DATE", wantText: "When would you like to go to Paris?"},
			{say: "next weekend, for 3 days", wantState: "READY_TO_GENERATE", wantText: "3-day trip to Paris"},
		}, true),

		conversationCase("Resolve: single complete utterance", base, []turn{
			{say: "Trip to Rome next weekend for 5 days", wantState: "READY_TO_GENERATE", wantText: "5-day trip to Rome"},
		}, true),

		conversationCase("Resolve: correction overrides earlier value", base, []turn{
			{say: "4 days in Lisbon next friday", wantState: "READY_TO_GENERATE", wantText: "4-day trip to Lisbon"},
			{say: "actually make it 6 days", wantState: "READY_TO_GENERATE", wantText: "6-day trip to Lisbon"},
		}, true),

		conversationCase("Resolve: empty message -> clarify", base, []turn{
			{say: "", wantState: "COLLECTING_DESTINATION", wantText: "destination"},
		}, false),

		rawCase("Resolve: invalid json -> 400", base+"/api/chat/resolve", "{not json", []int{400}),

		{
			Name:  "Resolve: corrupt context recovers",
			Focus: "Resolve flow",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				status, resp, err := postResolve(ctx, r, base, map[string]any{
					"message": "3 days in Prague",
					"context": "!!garbage!!",
				})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				latency := time.Since(start)
				if status == http.StatusNotFound {
					return Result{Status: "PENDING", Latency: latency, Note: "not implemented"}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				if !strings.Contains(resp.Message, "lost the thread") {
					return Result{Status: "FAIL", Latency: latency, Note: "no recovery notice"}
				}
				if resp.State != "COLLECTING_DATE" {
					return Result{Status: "FAIL", Latency: latency, Note: "state=" + resp.State}
				}
				return Result{Status: "PASS", Latency: latency}
			},
		},

		// Sessions
		{
			Name:  "Session: mirror readable after resolve",
			Focus: "Session lookup",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				status, resp, err := postResolve(ctx, r, base, map[string]any{"message": "5 days in Paris"})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK || resp.SessionID == "" {
					return Result{Status: "FAIL", Note: fmt.Sprintf("resolve status=%d", status)}
				}
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/sessions/"+resp.SessionID, nil)
				lookup, err := r.httpc.Do(req)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				io.Copy(io.Discard, lookup.Body)
				lookup.Body.Close()
				latency := time.Since(start)
				switch lookup.StatusCode {
				case http.StatusOK:
					return Result{Status: "PASS", Latency: latency}
				case http.StatusServiceUnavailable:
					return Result{Status: "PENDING", Latency: latency, Note: "session mirror disabled"}
				default:
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("lookup status=%d", lookup.StatusCode)}
				}
			},
		},

		httpCaseMethod("Session: invalid id -> 400", http.MethodGet, base+"/api/sessions/not-a-uuid", nil, []int{400}, []int{501, 404}),

		httpCaseMethod("Session: unknown id -> 404", http.MethodGet, base+"/api/sessions/0a651d93-d658-4d85-a663-efef8b58a04d", nil, []int{404}, []int{501, 503}),

		// Learning and cache
		{
			Name:  "Patterns: confirmed resolution persisted",
			Focus: "Ready trips are recorded for derivation",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				start := time.Now()
				status, resp, err := postResolve(ctx, r, base, map[string]any{
					"message": "Trip to Rome next weekend for 5 days",
				})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK || resp.State != "READY_TO_GENERATE" {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d state=%s", status, resp.State)}
				}
				// The record write is asynchronous, so poll briefly.
				var count int
				for i := 0; i < 10; i++ {
					err = r.db.QueryRow(ctx,
						"SELECT count(*) FROM confirmed_resolutions WHERE session_id=$1",
						resp.SessionID,
					).Scan(&count)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if count > 0 {
						return Result{Status: "PASS", Latency: time.Since(start)}
					}
					time.Sleep(200 * time.Millisecond)
				}
				return Result{Status: "FAIL", Latency: time.Since(start), Note: "no confirmed_resolutions row"}
			},
		},
		{
			Name:  "Cache: extraction indexed in Redis",
			Focus: "Extraction results land in the shared cache",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				start := time.Now()
				status, _, err := postResolve(ctx, r, base, map[string]any{"message": "5 days in Paris"})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", status)}
				}
				n, err := r.redis.ZCard(ctx, "intentcache:index").Result()
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: "FAIL", Latency: time.Since(start), Note: "cache index empty"}
				}
				return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("entries=%d", n)}
			},
		},
		{
			Name:  "Determinism: same utterance same reply",
			Focus: "Complete utterances resolve without model calls",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				_, first, err := postResolve(ctx, r, base, map[string]any{"message": "Trip to Berlin next weekend for 5 days"})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_, second, err := postResolve(ctx, r, base, map[string]any{"message": "Trip to Berlin next weekend for 5 days"})
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				latency := time.Since(start)
				if first.Message != second.Message || first.State != second.State {
					return Result{Status: "FAIL", Latency: latency, Note: "replies diverged"}
				}
				return Result{Status: "PASS", Latency: latency}
			},
		},

		manualCase("Model: vague request filled by fallback", "needs GEMINI_API_KEY on the server; try \"somewhere warm in may\""),
		manualCase("Embedding: descriptive destination match", "needs TRIPFLOW_EMBED_URL and a running embedding server"),
		manualCase("Patterns: derived suggestions after repeats", "needs repeated confirmed trips and a derivation tick"),

		// Concurrency
		{
			Name:  "Concurrency: parallel sessions stay isolated",
			Focus: "Fresh resolves never share a session",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentResolve(ctx, r, base)
			},
		},

		manualCase("Error: Redis down -> resolve still answers", "stop Redis and confirm /api/chat/resolve still returns 200"),
		manualCase("Error: DB down -> confirmations skipped", "stop Postgres and confirm the resolve flow is unaffected"),

		// Performance
		{
			Name:  "Perf: resolve throughput",
			Focus: "Deterministic resolve under load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/chat/resolve", map[string]any{
					"message": "5 days in Paris",
				})
			},
		},
		{
			Name:  "Perf: clarify throughput",
			Focus: "Empty-message fast path under load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/chat/resolve", map[string]any{
					"message": "",
				})
			},
		},
	}
}

type turn struct {
	say       string
	wantState string
	wantText  string
}

func conversationCase(name, base string, turns []turn, wantCanGenerate bool) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Resolve flow",
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			token := ""
			var last resolveResp
			for i, t := range turns {
				status, resp, err := postResolve(ctx, r, base, map[string]any{
					"message": t.say,
					"context": token,
				})
				if err != nil {
					return Result{Status: "FAIL", Note: fmt.Sprintf("turn %d: %v", i+1, err)}
				}
				if status == http.StatusNotFound {
					return Result{Status: "PENDING", Note: "not implemented"}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("turn %d: status=%d", i+1, status)}
				}
				if t.wantState != "" && resp.State != t.wantState {
					return Result{Status: "FAIL", Note: fmt.Sprintf("turn %d: state=%s want %s", i+1, resp.State, t.wantState)}
				}
				if t.wantText != "" && !strings.Contains(resp.Message, t.wantText) {
					return Result{Status: "FAIL", Note: fmt.Sprintf("turn %d: reply %q", i+1, resp.Message)}
				}
				token = resp.Context
				last = resp
			}
			latency := time.Since(start)
			if last.CanGenerate != wantCanGenerate {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("can_generate=%v", last.CanGenerate)}
			}
			return Result{Status: "PASS", Latency: latency}
		},
	}
}

func postResolve(ctx context.Context, r *Runner, base string, body map[string]any) (int, resolveResp, error) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/chat/resolve", bytes.NewReader(b))
	if err != nil {
		return 0, resolveResp{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, resolveResp{}, err
	}
	defer resp.Body.Close()
	var parsed resolveResp
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return resp.StatusCode, resolveResp{}, err
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, parsed, nil
}

func rawCase(name, url, body string, okStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)
			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func concurrentResolve(ctx context.Context, r *Runner, base string) Result {
	wg := sync.WaitGroup{}
	mu := sync.Mutex{}
	succ := 0
	pend := 0
	sessions := make(map[string]struct{})

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, resp, err := postResolve(ctx, r, base, map[string]any{"message": "3 days in Madrid"})
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if status == http.StatusNotFound || status == http.StatusNotImplemented {
				pend++
				return
			}
			if status == http.StatusOK && resp.SessionID != "" {
				succ++
				sessions[resp.SessionID] = struct{}{}
			}
		}()
	}
	wg.Wait()

	if pend == r.cfg.Concurrency {
		return Result{Status: "PENDING", Note: "not implemented"}
	}
	if succ != r.cfg.Concurrency {
		return Result{Status: "FAIL", Note: fmt.Sprintf("success=%d/%d", succ, r.cfg.Concurrency)}
	}
	if len(sessions) != succ {
		return Result{Status: "FAIL", Note: fmt.Sprintf("distinct sessions=%d want %d", len(sessions), succ)}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("sessions=%d", len(sessions))}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
