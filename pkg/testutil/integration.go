package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides base functionality for integration tests
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "parquetize-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir

	s.T().Logf("Integration test suite started in %s", s.tempDir)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()

	if s.tempDir != "" {
		_ = os.RemoveAll(s.tempDir)
	}

	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the suite's scratch directory
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// Path joins elem under the suite's scratch directory
func (s *IntegrationTestSuite) Path(elem ...string) string {
	return filepath.Join(append([]string{s.tempDir}, elem...)...)
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

var (
	regions  = []string{"Norte", "Sul", "Leste", "Oeste"}
	statuses = []string{"Concluido", "Pendente", "Cancelado"}
)

// ProductionSheet builds a production-log fixture with n rows. Regiao and
// Status repeat heavily, Paciente is unique per row and Observacao is
// mostly empty.
func ProductionSheet(n int) Sheet {
	day := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rows := make([][]interface{}, n)
	for i := range rows {
		var note interface{}
		if i%10 == 0 {
			note = fmt.Sprintf("revisar %d", i)
		}
		rows[i] = []interface{}{
			i + 1,
			day.Add(time.Duration(i) * time.Hour),
			regions[i%len(regions)],
			statuses[i%len(statuses)],
			fmt.Sprintf("Paciente %05d", i),
			float64(i%500) * 1.25,
			note,
		}
	}
	return Sheet{
		Header: []string{"Id", "DataAtendimento", "Regiao", "Status", "Paciente", "Valor", "Observacao"},
		Rows:   rows,
	}
}

// PerformanceTest provides utilities for performance testing
type PerformanceTest struct {
	t         *testing.T
	name      string
	threshold struct {
		minThroughput float64 // rows/sec
		maxMemory     int64   // bytes
	}
}

// NewPerformanceTest creates a new performance test
func NewPerformanceTest(t *testing.T, name string) *PerformanceTest {
	return &PerformanceTest{
		t:    t,
		name: name,
	}
}

// WithThroughputTarget sets minimum throughput requirement
func (p *PerformanceTest) WithThroughputTarget(rowsPerSec float64) *PerformanceTest {
	p.threshold.minThroughput = rowsPerSec
	return p
}

// WithMemoryTarget sets maximum memory usage
func (p *PerformanceTest) WithMemoryTarget(maxBytes int64) *PerformanceTest {
	p.threshold.maxMemory = maxBytes
	return p
}

// Run executes fn once and checks the configured targets
func (p *PerformanceTest) Run(fn func() (rows int64, duration time.Duration)) {
	p.t.Helper()

	initialMem := CaptureMemoryProfile()
	rows, duration := fn()
	finalMem := CaptureMemoryProfile()

	if rows <= 0 || duration <= 0 {
		p.t.Errorf("%s: nothing measured (rows=%d, duration=%v)", p.name, rows, duration)
		return
	}

	throughput := float64(rows) / duration.Seconds()
	var memoryUsed int64
	if finalMem.TotalAlloc > initialMem.TotalAlloc {
		memoryUsed = int64(finalMem.TotalAlloc - initialMem.TotalAlloc)
	}

	p.t.Logf("Performance Test: %s", p.name)
	p.t.Logf("  Rows: %d", rows)
	p.t.Logf("  Duration: %v", duration)
	p.t.Logf("  Throughput: %.0f rows/sec", throughput)
	p.t.Logf("  Allocated: %s", formatBytes(memoryUsed))

	if p.threshold.minThroughput > 0 && throughput < p.threshold.minThroughput {
		p.t.Errorf("Throughput %.0f rows/sec below target %.0f rows/sec",
			throughput, p.threshold.minThroughput)
	}

	if p.threshold.maxMemory > 0 && memoryUsed > p.threshold.maxMemory {
		p.t.Errorf("Allocations %s exceed target %s",
			formatBytes(memoryUsed), formatBytes(p.threshold.maxMemory))
	}
}

// MemoryProfile captures memory statistics
type MemoryProfile struct {
	AllocBytes uint64
	TotalAlloc uint64
	HeapInuse  uint64
}

// CaptureMemoryProfile captures current memory profile
func CaptureMemoryProfile() *MemoryProfile {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &MemoryProfile{
		AllocBytes: m.Alloc,
		TotalAlloc: m.TotalAlloc,
		HeapInuse:  m.HeapInuse,
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
