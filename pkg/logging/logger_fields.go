package logging

import (
	"time"

	"go.uber.org/zap"
)

// Common field constructors
func String(key, value string) Field {
	return zap.String(key, value)
}

func Int(key string, value int) Field {
	return zap.Int(key, value)
}

func Uint64(key string, value uint64) Field {
	return zap.Uint64(key, value)
}

func Float64(key string, value float64) Field {
	return zap.Float64(key, value)
}

func Bool(key string, value bool) Field {
	return zap.Bool(key, value)
}

func Duration(key string, value time.Duration) Field {
	return zap.String(key, value.String())
}

func Error(err error) Field {
	return zap.Error(err)
}

func Any(key string, value any) Field {
	return zap.Any(key, value)
}

// Component field helpers for common component names
func Component(name string) Field {
	return String("component", name)
}

func Metric(name string) Field {
	return String("metric", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func NodeCount(n int) Field {
	return Int("nodes", n)
}

func EdgeCount(n int) Field {
	return Int("edges", n)
}

func Iterations(n int) Field {
	return Int("iterations", n)
}

func Modularity(q float64) Field {
	return Float64("modularity", q)
}

func GraphHash(h uint64) Field {
	return Uint64("graph_hash", h)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Path(p string) Field {
	return String("path", p)
}
