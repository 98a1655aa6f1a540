package keyboard

import "testing"

func TestSingle(t *testing.T) {
	markup := NewBuilder().Single("Watched", "video_watched")

	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("expected a 1x1 keyboard, got %v", markup.InlineKeyboard)
	}

	btn := markup.InlineKeyboard[0][0]
	if btn.Text != "Watched" || btn.Data != "video_watched" {
		t.Errorf("unexpected button: %+v", btn)
	}
}

func TestColumn(t *testing.T) {
	markup := NewBuilder().Column(
		[2]string{"Yes", "yes"},
		[2]string{"No", "no"},
	)

	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(markup.InlineKeyboard))
	}
	for i, want := range [][2]string{{"Yes", "yes"}, {"No", "no"}} {
		row := markup.InlineKeyboard[i]
		if len(row) != 1 || row[0].Text != want[0] || row[0].Data != want[1] {
			t.Errorf("row %d: got %+v, want %v", i, row, want)
		}
	}
}

func TestURLButton(t *testing.T) {
	markup := NewBuilder().URLButton("Open", "https://example.com")

	btn := markup.InlineKeyboard[0][0]
	if btn.Text != "Open" || btn.URL != "https://example.com" {
		t.Errorf("unexpected button: %+v", btn)
	}
	if btn.Data != "" {
		t.Errorf("url button must not carry callback data, got %q", btn.Data)
	}
}
