// Command loadtest drives a running ledger with concurrent writers and readers
// and prints per-endpoint latency percentiles.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const (
	fingerprintPool = 200
	txSeedPool      = 5000
)

var (
	baseURL  = flag.String("url", "http://127.0.0.1:8080", "ledger base URL")
	apiKey   = flag.String("key", "", "shared secret for privileged reads")
	duration = flag.Duration("duration", 10*time.Second, "duration of each phase")
	workers  = flag.Int("workers", 50, "concurrent clients")
)

var client = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 256,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

// op is one weighted request kind of a phase mix.
type op struct {
	name   string
	weight float64
	run    func(rng *rand.Rand) (status int, err error)
	ok     []int
}

type endpointStats struct {
	failures  int
	statuses  map[int]int
	latencies []time.Duration
}

type phaseStats map[string]*endpointStats

func (ps phaseStats) add(name string, status int, lat time.Duration, failed bool) {
	s, ok := ps[name]
	if !ok {
		s = &endpointStats{statuses: make(map[int]int)}
		ps[name] = s
	}
	s.statuses[status]++
	s.latencies = append(s.latencies, lat)
	if failed {
		s.failures++
	}
}

func (ps phaseStats) merge(other phaseStats) {
	for name, o := range other {
		s, ok := ps[name]
		if !ok {
			ps[name] = o
			continue
		}
		s.failures += o.failures
		s.latencies = append(s.latencies, o.latencies...)
		for code, n := range o.statuses {
			s.statuses[code] += n
		}
	}
}

var (
	recordOp = op{name: "POST /transactions", run: postRecord, ok: []int{http.StatusCreated, http.StatusOK, http.StatusConflict}}
	listOp   = op{name: "GET /fingerprints", run: getList, ok: []int{http.StatusOK}}
	byIDOp   = op{name: "GET /fingerprints/id", run: getByID, ok: []int{http.StatusOK, http.StatusNotFound, http.StatusUnauthorized}}
	byHashOp = op{name: "GET /fingerprints/hash", run: getByHash, ok: []int{http.StatusOK, http.StatusNotFound, http.StatusUnauthorized}}
)

func main() {
	flag.Parse()

	fmt.Printf("ledger load test: %s, %d workers, %s per phase\n", *baseURL, *workers, *duration)
	if err := waitReady(30); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	phases := []struct {
		title string
		mix   []op
	}{
		{"seed", []op{withWeight(recordOp, 1)}},
		{"mixed", []op{withWeight(recordOp, 0.6), withWeight(listOp, 0.25), withWeight(byIDOp, 0.15)}},
		{"read-heavy", []op{withWeight(recordOp, 0.1), withWeight(listOp, 0.4), withWeight(byIDOp, 0.3), withWeight(byHashOp, 0.2)}},
	}
	for _, p := range phases {
		fmt.Printf("\n-- %s --\n", p.title)
		report(runPhase(p.mix), *duration)
	}

	if err := checkReplayRejected(); err != nil {
		fmt.Fprintln(os.Stderr, "replay check:", err)
		os.Exit(1)
	}
	fmt.Println("\nreplay check: duplicate transaction rejected with 409")
}

func withWeight(o op, w float64) op {
	o.weight = w
	return o
}

func waitReady(attempts int) error {
	for i := 0; i < attempts; i++ {
		resp, err := client.Get(*baseURL + "/health")
		if err == nil {
			drain(resp)
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not responding", *baseURL)
}

func pick(mix []op, rng *rand.Rand) op {
	r := rng.Float64()
	for _, o := range mix {
		if r < o.weight {
			return o
		}
		r -= o.weight
	}
	return mix[len(mix)-1]
}

func runPhase(mix []op) phaseStats {
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	total := phaseStats{}

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			local := phaseStats{}
			for ctx.Err() == nil {
				o := pick(mix, rng)
				start := time.Now()
				status, err := o.run(rng)
				local.add(o.name, status, time.Since(start), err != nil || !contains(o.ok, status))
			}
			mu.Lock()
			total.merge(local)
			mu.Unlock()
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()
	return total
}

func report(ps phaseStats, d time.Duration) {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("  %-24s %8s %6s %9s %9s %9s  %s\n", "endpoint", "reqs", "fail", "p50", "p95", "p99", "statuses")
	var reqs, failures int
	for _, name := range names {
		s := ps[name]
		sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
		reqs += len(s.latencies)
		failures += s.failures
		fmt.Printf("  %-24s %8d %6d %9s %9s %9s  %s\n", name, len(s.latencies), s.failures,
			fmtDur(quantile(s.latencies, 0.50)), fmtDur(quantile(s.latencies, 0.95)), fmtDur(quantile(s.latencies, 0.99)),
			fmtStatuses(s.statuses))
	}
	if reqs == 0 {
		fmt.Println("  no requests completed")
		return
	}
	fmt.Printf("  total %d reqs, %d failed (%.2f%%), %.0f req/s\n",
		reqs, failures, float64(failures)/float64(reqs)*100, float64(reqs)/d.Seconds())
}

// checkReplayRejected records a fresh transaction and posts it again.
func checkReplayRejected() error {
	body := recordBody(fingerprintPool+1, time.Now().UnixNano(), 1)
	first, err := post(body)
	if err != nil {
		return err
	}
	if first != http.StatusCreated && first != http.StatusOK {
		return fmt.Errorf("first post returned %d", first)
	}
	second, err := post(body)
	if err != nil {
		return err
	}
	if second != http.StatusConflict {
		return fmt.Errorf("replayed post returned %d, want 409", second)
	}
	return nil
}

func fingerprintID(n int) string {
	return fmt.Sprintf("loadtest-fp-%05d", n)
}

func fingerprintHash(n int) string {
	return fmt.Sprintf("%064x", n+1)
}

func recordBody(fp int, txSeed int64, wallet int) map[string]any {
	return map[string]any{
		"fingerprintId":     fingerprintID(fp),
		"hashedFingerprint": fingerprintHash(fp),
		"walletAddress":     fmt.Sprintf("0x%040x", wallet),
		"transactionHash":   fmt.Sprintf("0x%064x", txSeed),
		"timestamp":         time.Now().Unix(),
	}
}

func post(body map[string]any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(*baseURL+"/transactions", "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	drain(resp)
	return resp.StatusCode, nil
}

func postRecord(rng *rand.Rand) (int, error) {
	return post(recordBody(rng.Intn(fingerprintPool), int64(rng.Intn(txSeedPool)), rng.Intn(1000)))
}

func getList(rng *rand.Rand) (int, error) {
	sortFields := []string{"createdAt", "updatedAt", "fingerprintId", "fingerprintHash"}
	return get(fmt.Sprintf("/fingerprints?page=%d&pageSize=20&sortField=%s&sortDirection=%s",
		rng.Intn(5)+1, sortFields[rng.Intn(len(sortFields))], []string{"asc", "desc"}[rng.Intn(2)]))
}

func getByID(rng *rand.Rand) (int, error) {
	return get("/fingerprints/id/" + fingerprintID(rng.Intn(fingerprintPool)))
}

func getByHash(rng *rand.Rand) (int, error) {
	return get("/fingerprints/hash/0x" + fingerprintHash(rng.Intn(fingerprintPool)))
}

func get(path string) (int, error) {
	req, err := http.NewRequest(http.MethodGet, *baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	drain(resp)
	return resp.StatusCode, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func fmtStatuses(statuses map[int]int) string {
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		label := "err"
		if code != 0 {
			label = fmt.Sprint(code)
		}
		parts = append(parts, fmt.Sprintf("%s=%d", label, statuses[code]))
	}
	return strings.Join(parts, " ")
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
