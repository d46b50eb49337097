package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// review_smoke probes the public review surface of a deployment: for each
// configured share token it fetches the review page and reports status,
// latency and payload counts. Critical tokens failing make the run exit
// non-zero, so the script doubles as a post-deploy gate.

type target struct {
	Token    string `json:"token"`
	Label    string `json:"label"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type probe struct {
	Target       target
	Status       int
	ProjectName  string
	VideoCount   int
	NoteCount    int
	ExpiresIn    time.Duration
	Duration     time.Duration
	Error        error
}

type reviewEnvelope struct {
	Data *struct {
		Project struct {
			Name           string    `json:"name"`
			Status         string    `json:"status"`
			ShareExpiresAt time.Time `json:"share_expires_at"`
		} `json:"project"`
		Videos []json.RawMessage `json:"videos"`
		Notes  []json.RawMessage `json:"notes"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base        string
		prefix      string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "review_smoke", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		probes   []probe
		breaking int
		warnings int
	)

	for _, t := range targets {
		p := probeTarget(client, base, prefix, t)
		if p.Error != nil || p.Status != http.StatusOK {
			if t.Critical {
				breaking++
			} else {
				warnings++
			}
		}
		probes = append(probes, p)
	}

	printReport(probes)

	fmt.Printf("Breaking failures: %d, Warnings: %d\n", breaking, warnings)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probeTarget(client *http.Client, base, prefix string, tgt target) probe {
	p := probe{Target: tgt}
	if strings.TrimSpace(tgt.Token) == "" {
		p.Error = errors.New("empty share token")
		return p
	}

	url := strings.TrimRight(base, "/") + path(prefix) + "/review/" + tgt.Token
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		p.Error = err
		return p
	}

	start := time.Now()
	resp, err := client.Do(req)
	p.Duration = time.Since(start)
	if err != nil {
		p.Error = err
		return p
	}
	defer resp.Body.Close()

	p.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.Error = fmt.Errorf("read body: %w", err)
		return p
	}

	var envelope reviewEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		p.Error = fmt.Errorf("decode body: %w", err)
		return p
	}

	if envelope.Error != nil {
		p.Error = fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		return p
	}
	if envelope.Data == nil {
		p.Error = errors.New("response missing data envelope")
		return p
	}

	p.ProjectName = envelope.Data.Project.Name
	p.VideoCount = len(envelope.Data.Videos)
	p.NoteCount = len(envelope.Data.Notes)
	p.ExpiresIn = time.Until(envelope.Data.Project.ShareExpiresAt).Round(time.Minute)
	return p
}

func path(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func printReport(results []probe) {
	fmt.Println("Review Smoke Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil || res.Status != http.StatusOK {
			status = "FAIL"
		}
		label := res.Target.Label
		if label == "" {
			label = shorten(res.Target.Token)
		}
		fmt.Printf("[%s] %s\n", status, label)
		fmt.Printf("  HTTP %d (%s)\n", res.Status, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Project: %s | Videos: %d | Notes: %d | Expires in: %s | Critical: %t\n",
			res.ProjectName, res.VideoCount, res.NoteCount, res.ExpiresIn, res.Target.Critical)
	}
}

func shorten(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}
