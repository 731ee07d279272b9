package pipeline

import "testing"

func TestSheetRows(t *testing.T) {
	rows := sheetRows(cleanFixture())
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}

	first := rows[0]
	if len(first) != 8 {
		t.Fatalf("cells=%d, want 8", len(first))
	}
	if first[0] != "Cool Jacket" {
		t.Errorf("title cell = %v", first[0])
	}
	if first[1] != 4.5 {
		t.Errorf("rating cell = %v", first[1])
	}
	if first[2] != 5 {
		t.Errorf("colors cell = %v", first[2])
	}
	if first[7] != "2024-01-01T10:00:00Z" {
		t.Errorf("timestamp cell = %v, want serialized text", first[7])
	}

	second := rows[1]
	if second[1] != nil || second[2] != nil || second[7] != nil {
		t.Errorf("null fields should upload as empty cells, got %v", second)
	}
}

func TestSheetRowsEmpty(t *testing.T) {
	if rows := sheetRows(nil); len(rows) != 0 {
		t.Fatalf("rows=%d, want 0", len(rows))
	}
}
