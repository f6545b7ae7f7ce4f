package guidance

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

func TestDefault(t *testing.T) {
	r := Default()

	want := []models.Category{models.CategoryAccident, models.CategoryFire, models.CategoryMedical, models.CategoryViolence}
	if got := r.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Categories=%v want %v", got, want)
	}

	fire, ok := r.For(models.CategoryFire)
	if !ok {
		t.Fatalf("expected guidance for fire")
	}
	if len(fire.Precautions) != 3 || len(fire.Dos) != 3 || len(fire.Donts) != 3 {
		t.Errorf("unexpected fire bundle sizes: %+v", fire)
	}
	if !strings.Contains(fire.Dos[1], "101") {
		t.Errorf("expected fire department number in dos, got %q", fire.Dos[1])
	}

	violence, _ := r.For(models.CategoryViolence)
	if len(violence.Precautions) != 4 {
		t.Errorf("expected 4 violence precautions, got %d", len(violence.Precautions))
	}
}

func TestFor_Absent(t *testing.T) {
	r := Default()
	for _, c := range []models.Category{models.CategoryPolice, models.CategoryUnknown} {
		if b, ok := r.For(c); ok {
			t.Errorf("expected no guidance for %s, got %+v", c, b)
		}
	}
}

func TestFor_ReturnsCopy(t *testing.T) {
	r := Default()
	b, ok := r.For(models.CategoryFire)
	if !ok || len(b.Dos) == 0 || len(b.Donts) == 0 || len(b.Precautions) == 0 {
		t.Fatalf("expected full fire guidance, got %+v", b)
	}
	want, _ := r.For(models.CategoryFire)

	b.Dos[0] = "changed"
	b.Donts[0] = "changed"
	b.Precautions = append(b.Precautions[:0], "changed")

	if again, _ := r.For(models.CategoryFire); !reflect.DeepEqual(again, want) {
		t.Errorf("registry mutated through a returned bundle: %+v", again)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guidance.yaml")
	doc := "police:\n  precautions: [Stay calm]\n  dos: [Call 100]\n  donts: []\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, ok := r.For(models.CategoryPolice)
	if !ok || b.Dos[0] != "Call 100" {
		t.Errorf("unexpected police bundle %+v ok=%v", b, ok)
	}
	if _, ok := r.For(models.CategoryFire); ok {
		t.Errorf("override should replace the embedded table")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := Parse([]byte("flood:\n  dos: [Move uphill]\n")); err == nil {
		t.Errorf("expected error for unknown category")
	}
	if _, err := Parse([]byte("fire: [not, a, bundle]")); err == nil {
		t.Errorf("expected decode error")
	}
	if r, err := LoadOrDefault(""); err != nil || len(r.Categories()) != 4 {
		t.Errorf("expected embedded table for empty path, err=%v", err)
	}
}
