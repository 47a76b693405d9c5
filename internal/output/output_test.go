package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/NivBraz/wordfreq/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{Results: []models.Result{
		{
			Resource:     "iso.txt",
			MostFrequent: &models.WordCount{Word: "the", Count: 3},
			TopWords: []models.WordCount{
				{Word: "the", Count: 3},
				{Word: "fox", Count: 3},
			},
			Stats: &models.Stats{TotalTokens: 9, DistinctTokens: 5, Lines: 3, TimeElapsed: 1},
		},
		{
			Resource: "missing.txt",
			Error:    "open missing.txt: resource not found",
		},
	}}
}

func TestWrite_Text(t *testing.T) {
	single := &models.Report{Results: []models.Result{
		{Resource: "iso.txt", MostFrequent: &models.WordCount{Word: "the", Count: 3}},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, single, Options{Format: "text"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "The most frequent word is: the, and the frequency is: 3\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Write(&buf, sampleReport(), Options{Format: "text", IncludeStats: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want = "iso.txt: The most frequent word is: the, and the frequency is: 3\n" +
		"   1. the 3\n" +
		"   2. fox 3\n" +
		"      9 tokens, 5 distinct, 3 lines in 1ms\n" +
		"missing.txt: open missing.txt: resource not found\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestWrite_TextColor(t *testing.T) {
	single := &models.Report{Results: []models.Result{
		{Resource: "iso.txt", MostFrequent: &models.WordCount{Word: "the", Count: 3}},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, single, Options{Format: "text", Color: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Expected ANSI escapes in %q", buf.String())
	}
}

func TestWrite_JSON(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		var buf bytes.Buffer
		if err := Write(&buf, sampleReport(), Options{Format: "json", PrettyPrint: pretty}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		var got models.Report
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json %q: %v", buf.String(), err)
		}
		if !reflect.DeepEqual(&got, sampleReport()) {
			t.Errorf("json round trip = %+v, want %+v", got, sampleReport())
		}
		if pretty != strings.Contains(buf.String(), "\n    ") {
			t.Errorf("PrettyPrint = %v but output was %q", pretty, buf.String())
		}
	}
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), Options{Format: "yaml"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var got models.Report
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml %q: %v", buf.String(), err)
	}
	if got.Results[0].MostFrequent.Word != "the" || got.Results[1].Error == "" {
		t.Errorf("Unexpected yaml report: %+v", got)
	}
}

func TestWrite_CSV(t *testing.T) {
	report := sampleReport()
	report.Results = append(report.Results, models.Result{
		Resource:     "tie.txt",
		MostFrequent: &models.WordCount{Word: "b", Count: 2},
	})

	var buf bytes.Buffer
	if err := Write(&buf, report, Options{Format: "csv"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "resource,rank,word,count\n" +
		"iso.txt,1,the,3\n" +
		"iso.txt,2,fox,3\n" +
		"tie.txt,1,b,2\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), Options{Format: "xml"}); err == nil {
		t.Error("Expected error for unknown format")
	}
}
