package extract

import "testing"

func TestMarkdownTable(t *testing.T) {
	got := markdownTable([]string{"Name", "Qty"}, [][]string{
		{"apples", "3"},
		{"pears", "5"},
	})
	want := "| Name | Qty |\n| --- | --- |\n| apples | 3 |\n| pears | 5 |"
	if got != want {
		t.Fatalf("table =\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdownTable_RaggedRows(t *testing.T) {
	// A row longer than the header widens the whole table; short rows pad.
	got := markdownTable([]string{"A"}, [][]string{
		{"1", "2", "3"},
		{"4"},
	})
	want := "| A |  |  |\n| --- | --- | --- |\n| 1 | 2 | 3 |\n| 4 |  |  |"
	if got != want {
		t.Fatalf("table =\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdownTable_EscapesCells(t *testing.T) {
	got := markdownTable([]string{"Note"}, [][]string{
		{"a|b"},
		{"line1\nline2"},
	})
	want := "| Note |\n| --- |\n| a\\|b |\n| line1 line2 |"
	if got != want {
		t.Fatalf("table =\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdownTable_Empty(t *testing.T) {
	if got := markdownTable(nil, nil); got != "" {
		t.Fatalf("empty table = %q, want empty string", got)
	}
}
