package directive_test

import (
	"reflect"
	"testing"

	"mp4creator/internal/directive"
)

func TestSearchKeywordsScansWholeScript(t *testing.T) {
	script := "첫 줄 [검색어:고양이]\n[VOICE:남자1] 둘째 [검색어:강아지] [검색어:고양이]\n[GIPHY:bird]"
	got := directive.SearchKeywords(script)
	want := []string{"고양이", "강아지"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SearchKeywords = %q, want %q", got, want)
	}
}

func TestForeignValuesFiltersByTag(t *testing.T) {
	script := "[GIPHY_URL:https://a/1.gif] text [GOOGLE_URL:https://b/2.png] [giphy:cat]"
	got := directive.ForeignValues(script, directive.TagGiphyURL, directive.TagGoogleURL)
	want := []string{"https://a/1.gif", "https://b/2.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ForeignValues = %q, want %q", got, want)
	}
	if got := directive.ForeignValues(script, directive.TagGiphy); !reflect.DeepEqual(got, []string{"cat"}) {
		t.Fatalf("lower-case tag should match canonical GIPHY, got %q", got)
	}
}
