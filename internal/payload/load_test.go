package payload

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_CSV(t *testing.T) {
	csv := "sensor_id,temperature,status\ns1,21.5,active\ns2,,critical\ns3,nan,active\n"
	got, err := Decode("readings.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tab, ok := got.(*Table)
	if !ok {
		t.Fatalf("want *Table, got %T", got)
	}
	if diff := cmp.Diff([]string{"sensor_id", "temperature", "status"}, tab.Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if tab.Len() != 3 {
		t.Fatalf("want 3 rows, got %d", tab.Len())
	}
	if v := tab.Rows[0][1]; v != 21.5 {
		t.Fatalf("numeric cell not parsed: %v (%T)", v, v)
	}
	if tab.Rows[1][1] != nil {
		t.Fatalf("empty cell should be nil, got %v", tab.Rows[1][1])
	}
	if f, ok := tab.Rows[2][1].(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("nan spelling should parse as NaN, got %v", tab.Rows[2][1])
	}
	if tab.Rows[0][0] != "s1" {
		t.Fatalf("string cell kept: %v", tab.Rows[0][0])
	}
}

func TestParseCell_NonFiniteSpellings(t *testing.T) {
	if f, ok := parseCell("NaN").(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("NaN: %v", parseCell("NaN"))
	}
	if f, ok := parseCell("Infinity").(float64); !ok || !math.IsInf(f, 1) {
		t.Fatalf("Infinity: %v", parseCell("Infinity"))
	}
	if f, ok := parseCell("-inf").(float64); !ok || !math.IsInf(f, -1) {
		t.Fatalf("-inf: %v", parseCell("-inf"))
	}
	if v := parseCell("infinite"); v != "infinite" {
		t.Fatalf("non-number word should stay a string: %v", v)
	}
}

func TestDecode_JSONRecordsBecomeTable(t *testing.T) {
	js := `[{"b":1,"a":"x"},{"b":2,"a":"y","c":true}]`
	got, err := Decode("data.json", strings.NewReader(js))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tab, ok := got.(*Table)
	if !ok {
		t.Fatalf("want *Table, got %T", got)
	}
	// columns sorted for determinism
	if diff := cmp.Diff([]string{"a", "b", "c"}, tab.Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if tab.Rows[0][2] != nil {
		t.Fatalf("absent field should be nil, got %v", tab.Rows[0][2])
	}
}

func TestDecode_JSONObjectAndList(t *testing.T) {
	got, err := Decode("cfg.json", strings.NewReader(`{"k":1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.(Object); !ok {
		t.Fatalf("want Object, got %T", got)
	}

	got, err = Decode("nums.json", strings.NewReader(`[1,2,3]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.(List); !ok {
		t.Fatalf("mixed array should stay a List, got %T", got)
	}
}

func TestDecode_UnknownExtensionIsText(t *testing.T) {
	got, err := Decode("notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if txt, ok := got.(Text); !ok || txt != "hello" {
		t.Fatalf("want Text(hello), got %T %v", got, got)
	}
}

func TestDecode_BadJSON(t *testing.T) {
	if _, err := Decode("x.json", strings.NewReader("{nope")); err == nil {
		t.Fatal("want parse error")
	}
}

func sampleTable() *Table {
	return &Table{
		Columns: []string{"id", "temp", "note"},
		Rows: [][]any{
			{"a", 20.0, "fine"},
			{"b", nil, nil},
			{"c", 30.0, "hot"},
		},
	}
}

func TestTable_Helpers(t *testing.T) {
	tab := sampleTable()

	if tab.IsEmpty() || tab.Len() != 3 {
		t.Fatalf("len wrong: %d", tab.Len())
	}
	if !tab.HasColumn("temp") || tab.HasColumn("ghost") {
		t.Fatal("HasColumn wrong")
	}

	vals, ok := tab.Column("temp")
	if !ok || len(vals) != 3 || vals[1] != nil {
		t.Fatalf("Column wrong: %v %v", vals, ok)
	}
	if _, ok := tab.Column("ghost"); ok {
		t.Fatal("unknown column should report false")
	}

	nums, ok := tab.NumericColumn("temp")
	if !ok || len(nums) != 2 || nums[0] != 20.0 || nums[1] != 30.0 {
		t.Fatalf("NumericColumn wrong: %v", nums)
	}

	if diff := cmp.Diff([]string{"temp"}, tab.NumericColumns()); diff != "" {
		t.Fatalf("NumericColumns (-want +got):\n%s", diff)
	}

	cols, counts := tab.NullCounts()
	if diff := cmp.Diff([]string{"temp", "note"}, cols); diff != "" {
		t.Fatalf("NullCounts cols (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1}, counts); diff != "" {
		t.Fatalf("NullCounts counts (-want +got):\n%s", diff)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		in   Payload
		want string
	}{
		{sampleTable(), "table(3x3)"},
		{Object{"a": 1}, "object(1 keys)"},
		{List{1, 2}, "list(2 items)"},
		{Text("abc"), "text(3 bytes)"},
	}
	for _, c := range cases {
		if got := Describe(c.in); got != c.want {
			t.Fatalf("Describe(%T)=%q want %q", c.in, got, c.want)
		}
	}
}
