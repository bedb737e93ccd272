package main

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"go.ngs.io/vertint/internal/adapter/store/cf"
	"go.ngs.io/vertint/internal/domain"
	"go.ngs.io/vertint/internal/usecase"
)

func TestHybridTable(t *testing.T) {
	vct := HybridTable(4)
	if len(vct) != 10 {
		t.Fatalf("Expected 10 coefficients, got %d", len(vct))
	}
	table := domain.NewHybridTable(vct)
	if table.A(0) != 0 || table.B(0) != 0 {
		t.Errorf("Expected zero pressure at the top, got A=%v B=%v", table.A(0), table.B(0))
	}
	if table.A(4) != 0 || table.B(4) != 1 {
		t.Errorf("Expected the surface at the bottom, got A=%v B=%v", table.A(4), table.B(4))
	}
	for k := 1; k <= 4; k++ {
		if p0, p1 := table.A(k-1)+table.B(k-1)*refPressure, table.A(k)+table.B(k)*refPressure; p1 <= p0 {
			t.Errorf("half level %d: expected increasing pressure, got %v after %v", k, p1, p0)
		}
	}
}

func TestGenerate(t *testing.T) {
	cat := Catalog(Settings{Levels: 8, NLat: 4, NLon: 8})
	f, err := Generate(cat, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	ngp := cat.Grids[0].Size
	for i := 0; i < ngp; i++ {
		top, bottom := i, 7*ngp+i
		if f.Temp[top] < tropopauseT || f.Temp[bottom] > 300 {
			t.Errorf("gridpoint %d: temperature out of range: top %v, bottom %v", i, f.Temp[top], f.Temp[bottom])
		}
		if f.Height[top] <= f.Height[bottom] {
			t.Errorf("gridpoint %d: expected height to decrease downwards, got top %v, bottom %v", i, f.Height[top], f.Height[bottom])
		}
		if f.Tracer[top] >= f.Tracer[bottom] {
			t.Errorf("gridpoint %d: expected more tracer near the surface", i)
		}
		if f.PS[i] < domain.MinSurfacePressure || f.PS[i] > domain.MaxSurfacePressure {
			t.Errorf("gridpoint %d: surface pressure %v out of range", i, f.PS[i])
		}
	}
}

func TestGenerate_RemapSmoke(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hybrid.nc")
	log, hook := test.NewNullLogger()
	s := Settings{Out: path, Levels: 6, NLat: 4, NLon: 8, Timesteps: 2}
	if err := generate(s, log); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Message != "Dataset written" {
		t.Error("Expected a summary log entry")
	}

	src, err := cf.Open(path, log)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = src.Close() }()

	dst := cf.Create(filepath.Join(t.TempDir(), "plev.nc"))
	req := usecase.RemapRequest{Operator: "ml2plx", Levels: []string{"default"}}
	result, err := usecase.NewRemapUseCase(log, nil).Execute(context.Background(), req, src, dst)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := dst.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if result.Timesteps != 2 {
		t.Errorf("Expected 2 timesteps, got %d", result.Timesteps)
	}
	for _, name := range []string{"st", "gh", "q"} {
		if !slices.Contains(result.Interpolated, name) {
			t.Errorf("Expected %s interpolated, got %v", name, result.Interpolated)
		}
	}
}
