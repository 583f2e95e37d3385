package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lvdashuaibi/eventpass/internal/model"
)

func TestGenerateWritesBothArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen, err := NewGenerator(dir, 256)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	ticket := &model.Ticket{
		TicketID:  "11111111-2222-4333-8444-555555555555",
		Name:      "Alice",
		Type:      "VIP",
		Status:    model.StatusValid,
		CreatedAt: time.Now(),
	}

	if err := gen.Generate(ticket); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, kind := range []Kind{KindQR, KindPDF} {
		path, err := gen.Path(ticket.TicketID, kind)
		if err != nil {
			t.Fatalf("Path(%s): %v", kind, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("artifact %s is empty", path)
		}
	}

	// 文件以票据ID命名
	if _, err := os.Stat(filepath.Join(dir, ticket.TicketID+".png")); err != nil {
		t.Fatalf("qr file not named by ticket id: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ticket.TicketID+".pdf")); err != nil {
		t.Fatalf("pdf file not named by ticket id: %v", err)
	}
}

func TestPathUnknownTicket(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator(t.TempDir(), 256)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	if _, err := gen.Path("never-issued", KindQR); !errors.Is(err, model.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if _, err := gen.Path("never-issued", KindPDF); !errors.Is(err, model.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator(t.TempDir(), 256)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for _, id := range []string{"", "../secret", "a/b", `a\b`, ".."} {
		if _, err := gen.Path(id, KindQR); !errors.Is(err, model.ErrArtifactNotFound) {
			t.Fatalf("id %q: expected ErrArtifactNotFound, got %v", id, err)
		}
	}
}
