package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lbpress/internal/config"
	"lbpress/internal/model"
)

func TestJoinTitles(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		want   string
	}{
		{name: "empty", titles: nil, want: ""},
		{name: "one", titles: []string{"A"}, want: "A"},
		{name: "two", titles: []string{"A", "B"}, want: "A and B"},
		{name: "three", titles: []string{"A", "B", "C"}, want: "A, B, and C"},
		{name: "four", titles: []string{"A", "B", "C", "D"}, want: "A, B, C, and D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, JoinTitles(tt.titles)); diff != "" {
				t.Errorf("join mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTitleString(t *testing.T) {
	tests := []struct {
		name   string
		rating *float64
		want   string
	}{
		{name: "whole stars", rating: model.Rating(3), want: "Foo (2020): ***"},
		{name: "half star", rating: model.Rating(3.5), want: "Foo (2020): ***1/2"},
		{name: "no rating", rating: nil, want: "Foo (2020)"},
		{name: "half star only", rating: model.Rating(0.5), want: "Foo (2020): 1/2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleString("Foo", 2020, tt.rating)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeading(t *testing.T) {
	rec := model.ReviewRecord{
		Title:     "Heat",
		Year:      1995,
		Rating:    model.Rating(4),
		Timestamp: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	want := "3/10/2024: Heat (1995): ****"
	if diff := cmp.Diff(want, Heading(rec)); diff != "" {
		t.Errorf("heading mismatch (-want +got):\n%s", diff)
	}
}

func TestCiteTitle(t *testing.T) {
	if got := CiteTitle("Heat", config.CitePlugin); got != "[cite]Heat[/cite]" {
		t.Errorf("cite style = %q", got)
	}
	if got := CiteTitle("Heat", config.CiteItalic); got != "<i>Heat</i>" {
		t.Errorf("italic style = %q", got)
	}
}

func TestBuilder(t *testing.T) {
	b, err := NewBuilder("<p>one</p><p>two</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b.WrapFirst("[spoiler]")
	b.WrapLast("[/spoiler]")
	b.PrependBlock("<h2>head</h2>")
	b.AppendBlock("<p>tail</p>")

	got, err := b.HTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<h2>head</h2><p>[spoiler]one</p><p>two[/spoiler]</p><p>tail</p>"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("builder output mismatch (-want +got):\n%s", diff)
	}
}

func TestDigest(t *testing.T) {
	opts := Options{Categories: []int{3}, Tags: []int{7}, CiteStyle: config.CiteItalic}
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	d := model.WeeklyDigest{
		ISOYear:     2024,
		ISOWeek:     11,
		WindowStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Records: []model.ReviewRecord{
			{
				Title:     "Heat",
				Year:      1995,
				Rating:    model.Rating(4),
				Timestamp: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
				Body:      "<p>The diner scene.</p>",
			},
			{
				Title:     "Old Boy",
				Year:      2003,
				Rating:    model.Rating(3),
				Timestamp: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
				Body:      "<p>The hallway fight.</p>",
				Spoiler:   true,
			},
		},
	}

	doc, err := Digest(d, opts, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff("Movie Reviews: 3/11/2024 to 3/17/2024", doc.Title); diff != "" {
		t.Errorf("title mismatch (-want +got):\n%s", diff)
	}
	wantBody := "<p>Movies reviewed this week: <i>Heat</i> and <i>Old Boy</i>.</p>" +
		"<p><!--more--></p>" +
		"<h2>3/12/2024: Heat (1995): ****</h2><p>The diner scene.</p>" +
		"<h2>3/13/2024: Old Boy (2003): ***</h2><p>[spoiler]The hallway fight.[/spoiler]</p>"
	if diff := cmp.Diff(wantBody, doc.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
	if !doc.Date.Equal(d.WindowEnd) {
		t.Errorf("date = %v, want window end %v", doc.Date, d.WindowEnd)
	}
	if diff := cmp.Diff([]int{3}, doc.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if doc.Status != model.StatusPublish {
		t.Errorf("status = %q, want publish", doc.Status)
	}
}

func TestDigestClampsFutureDate(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	d := model.WeeklyDigest{
		WindowStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Records: []model.ReviewRecord{
			{Title: "Heat", Year: 1995, Timestamp: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), Body: "<p>x</p>"},
		},
	}

	doc, err := Digest(d, Options{}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Date.Equal(now) {
		t.Errorf("date = %v, want clamped to now %v", doc.Date, now)
	}
}

func TestSingle(t *testing.T) {
	opts := Options{Categories: []int{3}, Tags: []int{7}}

	t.Run("plain record", func(t *testing.T) {
		rec := model.ReviewRecord{
			Title:     "Heat",
			Year:      1995,
			Rating:    model.Rating(4),
			Timestamp: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			Body:      "<p>The diner scene.</p>",
		}
		doc, err := Single(rec, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff("Heat (1995): ****", doc.Title); diff != "" {
			t.Errorf("title mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("<p>The diner scene.</p>", doc.Body); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
		if !doc.Date.Equal(rec.Timestamp) {
			t.Errorf("date = %v, want record timestamp", doc.Date)
		}
	})

	t.Run("spoiler record gets warning and more marker", func(t *testing.T) {
		rec := model.ReviewRecord{
			Title:     "Old Boy",
			Year:      2003,
			Timestamp: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
			Body:      "<p>The hallway fight.</p>",
			Spoiler:   true,
		}
		doc, err := Single(rec, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "<p>This review contains spoilers.</p><p><!--more--></p><p>The hallway fight.</p>"
		if diff := cmp.Diff(want, doc.Body); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
		if strings.Contains(doc.Body, "[spoiler]") {
			t.Error("single-post mode must not use the digest spoiler wrapper")
		}
	})
}
