package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestCoreError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CoreError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(KindParserUnexpectedEof, SeverityFatal, "unexpected end of input"),
			expected: "parser_unexpected_eof (fatal): unexpected end of input",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("invalid character"), KindParserInvalidJson, SeverityFatal, "malformed JSON"),
			expected: "parser_invalid_json (fatal): malformed JSON: invalid character",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestCoreError_WithContext(t *testing.T) {
	err := New(KindParserInvalidChunkHeader, SeverityFatal, "invalid chunk header").
		WithContext("chunk_index", 3).
		WithContext("line_no", 7)

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["chunk_index"] != 3 {
		t.Errorf("Context[chunk_index] = %v, want 3", err.Context["chunk_index"])
	}

	if err.Context["line_no"] != 7 {
		t.Errorf("Context[line_no] = %v, want 7", err.Context["line_no"])
	}
}

func TestIsKind(t *testing.T) {
	ioErr := New(KindIo, SeverityFatal, "disk full")
	dbErr := New(KindDb, SeverityFatal, "constraint violation")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		kind     ErrorKind
		expected bool
	}{
		{"io error matches io kind", ioErr, KindIo, true},
		{"io error doesn't match db kind", ioErr, KindDb, false},
		{"db error matches db kind", dbErr, KindDb, true},
		{"standard error doesn't match any kind", standardErr, KindIo, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsKind(test.err, test.kind)
			if result != test.expected {
				t.Errorf("IsKind() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestGetKind(t *testing.T) {
	if got := GetKind(New(KindBuilderError, SeverityFatal, "boom")); got != KindBuilderError {
		t.Errorf("GetKind() = %v, want %v", got, KindBuilderError)
	}
	if got := GetKind(fmt.Errorf("plain")); got != KindIo {
		t.Errorf("GetKind() on non-CoreError = %v, want default %v", got, KindIo)
	}
}

func TestConstructors(t *testing.T) {
	t.Run("MissingSection", func(t *testing.T) {
		err := MissingSection("sessions")
		if err.Kind != KindParserInvalidJson {
			t.Errorf("Kind = %v, want %v", err.Kind, KindParserInvalidJson)
		}
		if err.Context["section"] != "sessions" {
			t.Errorf("Context[section] = %v, want sessions", err.Context["section"])
		}
	})

	t.Run("UnexpectedInput", func(t *testing.T) {
		err := UnexpectedInput("end_of_chunk", "garbage line")
		if err.Kind != KindParserUnexpectedInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindParserUnexpectedInput)
		}
	})

	t.Run("InvalidChunkHeader", func(t *testing.T) {
		cause := fmt.Errorf("unexpected token")
		err := InvalidChunkHeader(2, cause)
		if err.Kind != KindParserInvalidChunkHeader {
			t.Errorf("Kind = %v, want %v", err.Kind, KindParserInvalidChunkHeader)
		}
		if err.Context["chunk_index"] != 2 {
			t.Errorf("Context[chunk_index] = %v, want 2", err.Context["chunk_index"])
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("expected wrapped cause to match %v", cause)
		}
	})

	t.Run("UnknownSession", func(t *testing.T) {
		err := UnknownSession(5)
		if err.Kind != KindParserSemantic {
			t.Errorf("Kind = %v, want %v", err.Kind, KindParserSemantic)
		}
		if err.Semantic != SemanticUnknownSession {
			t.Errorf("Semantic = %v, want %v", err.Semantic, SemanticUnknownSession)
		}
	})

	t.Run("UnknownLabel", func(t *testing.T) {
		err := UnknownLabel(9)
		if err.Semantic != SemanticUnknownLabel {
			t.Errorf("Semantic = %v, want %v", err.Semantic, SemanticUnknownLabel)
		}
	})

	t.Run("SerializerIncomplete", func(t *testing.T) {
		err := SerializerIncomplete("sample has neither hits nor branch counts")
		if err.Kind != KindSerializerIncomplete {
			t.Errorf("Kind = %v, want %v", err.Kind, KindSerializerIncomplete)
		}
	})

	t.Run("BuilderError", func(t *testing.T) {
		cause := fmt.Errorf("unique constraint failed")
		err := BuilderError("insert_coverage_sample failed", cause)
		if err.Kind != KindBuilderError {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBuilderError)
		}
		if !stdErrors.Is(err, cause) {
			t.Error("should wrap cause")
		}
	})

	t.Run("DbError", func(t *testing.T) {
		cause := fmt.Errorf("UNIQUE constraint failed: coverage_sample.id")
		err := DbError("insert_coverage_sample", cause)
		if err.Kind != KindDb {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDb)
		}
		if err.Context["operation"] != "insert_coverage_sample" {
			t.Errorf("Context[operation] = %v, want insert_coverage_sample", err.Context["operation"])
		}
	})
}
