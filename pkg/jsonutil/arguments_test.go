package jsonutil

import (
	"reflect"
	"testing"
)

func TestObjectValue(t *testing.T) {
	t.Run("decoded map passes through", func(t *testing.T) {
		in := map[string]any{"plate": "X1"}
		got, err := ObjectValue(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, in) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("JSON string decoded", func(t *testing.T) {
		got, err := ObjectValue(`{"plate":"X1"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["plate"] != "X1" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("nil yields empty map", func(t *testing.T) {
		got, err := ObjectValue(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("empty string yields empty map", func(t *testing.T) {
		got, err := ObjectValue("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("malformed JSON string is an error", func(t *testing.T) {
		if _, err := ObjectValue(`{"plate":`); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("wrong type is an error", func(t *testing.T) {
		if _, err := ObjectValue(42); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestArrayValue(t *testing.T) {
	t.Run("decoded pipeline passes through", func(t *testing.T) {
		in := []any{map[string]any{"$match": map[string]any{"severity": "high"}}}
		got, err := ArrayValue(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d stages", len(got))
		}
	})

	t.Run("JSON string decoded", func(t *testing.T) {
		got, err := ArrayValue(`[{"$limit": 5}]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d stages", len(got))
		}
	})

	t.Run("non-object element is an error", func(t *testing.T) {
		if _, err := ArrayValue([]any{"not a stage"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestStringsValue(t *testing.T) {
	t.Run("decoded list", func(t *testing.T) {
		got, err := StringsValue([]any{"plate", "mileage"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"plate", "mileage"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("JSON string list", func(t *testing.T) {
		got, err := StringsValue(`["plate","mileage"]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"plate", "mileage"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("bare string becomes single element", func(t *testing.T) {
		got, err := StringsValue("plate")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"plate"}) {
			t.Errorf("got %v", got)
		}
	})
}
