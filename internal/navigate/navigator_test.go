package navigate

import (
	"context"
	"errors"
	"testing"

	"github.com/mj1618/a11y-probe/internal/model"
	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/mj1618/a11y-probe/internal/platform/platformtest"
	"github.com/rs/zerolog"
)

// abcd flattens to [A, B, C, D]; only D is a heading.
func abcd() *model.Node {
	return &model.Node{
		Ref: "A", ClassName: "android.widget.FrameLayout",
		Children: []*model.Node{
			{Ref: "B", ClassName: "android.widget.TextView", Text: "Title", ResourceID: "app:id/title",
				Children: []*model.Node{{Ref: "C", ClassName: "android.widget.Button", Text: "OK"}}},
			{Ref: "D", ClassName: "android.widget.TextView", Text: "Section", Heading: true},
		},
	}
}

func newTestNavigator(fake *platformtest.Fake) *Navigator {
	return New(Options{Tree: fake, Actions: fake, Logger: zerolog.Nop()})
}

func TestFocus_ForwardFindsNextMatch(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd(), FocusRef: "B"}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByHeading}, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Moved || res.Selected == nil || res.Selected.Ref != "D" {
		t.Fatalf("expected D selected, got %+v", res)
	}
	if fake.Focus() != "D" {
		t.Errorf("focus: got %q, want D", fake.Focus())
	}
	if res.Previous == nil || res.Previous.Ref != "B" {
		t.Errorf("previous: got %+v", res.Previous)
	}
}

func TestFocus_BackwardNoMatchLeavesFocus(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd(), FocusRef: "B"}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByHeading}, Backward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved || res.Selected != nil {
		t.Errorf("backward from B scans only A and should not move, got %+v", res)
	}
	if len(fake.Actions()) != 0 {
		t.Errorf("no focus action expected, got %v", fake.Actions())
	}
	if fake.Focus() != "B" {
		t.Errorf("focus changed to %q", fake.Focus())
	}
}

func TestFocus_BackwardFindsPrevious(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd(), FocusRef: "D"}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByClass, Value: "android.widget.TextView"}, Backward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected == nil || res.Selected.Ref != "B" {
		t.Errorf("expected B, got %+v", res.Selected)
	}
}

func TestFocus_NoCurrentFocusStartsAtTop(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd()}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByClass, Value: "android.widget.TextView"}, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected == nil || res.Selected.Ref != "B" {
		t.Errorf("expected first TextView B, got %+v", res.Selected)
	}
	if res.Previous != nil {
		t.Errorf("previous should be empty, got %+v", res.Previous)
	}
}

func TestFocus_NoCurrentFocusNoMatch(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd()}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByClass, Value: "android.widget.Switch"}, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved {
		t.Error("no match should be a no-op")
	}
}

func TestFocus_TextIsUnordered(t *testing.T) {
	// Focus is on D, after B; a forward search would find nothing, but text
	// search scans the whole list.
	fake := &platformtest.Fake{RootNode: abcd(), FocusRef: "D"}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByText, Value: "title"}, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected == nil || res.Selected.Ref != "B" {
		t.Errorf("expected B, got %+v", res.Selected)
	}
}

func TestFocus_IDSubstring(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd(), FocusRef: "C"}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByID, Value: "TITLE"}, Backward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected == nil || res.Selected.Ref != "B" {
		t.Errorf("expected B, got %+v", res.Selected)
	}
}

func TestFocus_EmptyTree(t *testing.T) {
	fake := &platformtest.Fake{}
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByHeading}, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved || res.Selected != nil {
		t.Errorf("empty tree should be a no-op, got %+v", res)
	}
}

func TestFocus_FocusOutsideTree(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd(), FocusRef: "B"}
	fake.RootNode = &model.Node{Ref: "X", Children: []*model.Node{{Ref: "Y", Heading: true}}}
	// FocusRef "B" is not in the new tree, so the fake reports no focus.
	res, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByHeading}, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if res.Selected == nil || res.Selected.Ref != "Y" {
		t.Errorf("expected Y, got %+v", res.Selected)
	}
}

func TestFocus_ActionError(t *testing.T) {
	fake := &platformtest.Fake{
		RootNode: abcd(),
		OnAction: func(string, platform.Action) (bool, error) { return false, errors.New("stale node") },
	}
	if _, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByHeading}, Forward); err == nil {
		t.Error("expected action error")
	}
}

func TestFocus_MissingValue(t *testing.T) {
	fake := &platformtest.Fake{RootNode: abcd()}
	if _, err := newTestNavigator(fake).Focus(context.Background(), Selection{Kind: ByText}, Forward); err == nil {
		t.Error("text selection without a value should fail")
	}
	if fake.RootCalls() != 0 {
		t.Error("invalid selection should fail before reading the tree")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"id": ByID, "Text": ByText, "class": ByClass, "HEADING": ByHeading} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseKind("role"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Forward, "next": Forward, "backward": Backward, "previous": Backward, "any": Unordered} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}
