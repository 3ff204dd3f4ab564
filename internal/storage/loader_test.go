package storage

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"csv2fts/internal/logging"
	"csv2fts/internal/parser"
)

// scriptReader replays a fixed sequence of Next results.
type scriptReader struct {
	steps []step
	i     int
	line  int
}

type step struct {
	rec []string
	err error
}

func rows(recs ...[]string) *scriptReader {
	r := &scriptReader{}
	for _, rec := range recs {
		r.steps = append(r.steps, step{rec: rec})
	}
	return r
}

func (r *scriptReader) Header() ([]string, error) { return nil, errors.New("not used") }

func (r *scriptReader) Next() ([]string, error) {
	if r.i >= len(r.steps) {
		return nil, io.EOF
	}
	s := r.steps[r.i]
	r.i++
	r.line = r.i + 1
	return s.rec, s.err
}

func (r *scriptReader) Line() int { return r.line }

// fakeStore records committed rows and can be told to fail.
type fakeStore struct {
	committed   [][]string
	commits     int
	rollbacks   int
	begins      int
	failInsert  func(values []string) error
	failCommit  error
	failBeginAt int // 1-based Begin call that fails; 0 = never
	onInsert    func()
}

type fakeBatch struct {
	s       *fakeStore
	pending [][]string
	width   int
}

func (s *fakeStore) Begin(_ context.Context, columns []string) (Batch, error) {
	s.begins++
	if s.failBeginAt == s.begins {
		return nil, errors.New("begin boom")
	}
	return &fakeBatch{s: s, width: len(columns)}, nil
}

func (b *fakeBatch) Insert(_ context.Context, values []string) error {
	if b.s.onInsert != nil {
		b.s.onInsert()
	}
	if err := CheckArity(values, b.width); err != nil {
		return err
	}
	if b.s.failInsert != nil {
		if err := b.s.failInsert(values); err != nil {
			return err
		}
	}
	b.pending = append(b.pending, append([]string(nil), values...))
	return nil
}

func (b *fakeBatch) Commit() error {
	if b.s.failCommit != nil {
		return b.s.failCommit
	}
	b.s.commits++
	b.s.committed = append(b.s.committed, b.pending...)
	return nil
}

func (b *fakeBatch) Rollback() error {
	b.s.rollbacks++
	return nil
}

func quiet() LoadOptions {
	return LoadOptions{Columns: []string{"id", "name"}, BatchSize: 100000, Logger: logging.Discard()}
}

// TestLoad_EndToEndScenario covers the id,name example: a wide row is
// truncated and still inserted.
func TestLoad_EndToEndScenario(t *testing.T) {
	t.Parallel()

	rd := rows([]string{"1", "Alice"}, []string{"2", "Bob"}, []string{"", "bad", "extra"})
	st := &fakeStore{}

	sum, err := Load(context.Background(), rd, st, quiet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := [][]string{{"1", "Alice"}, {"2", "Bob"}, {"", "bad"}}
	if !reflect.DeepEqual(st.committed, want) {
		t.Fatalf("committed = %q, want %q", st.committed, want)
	}
	if sum.Inserted != 3 || sum.Attempted != 3 || sum.Batches != 1 || st.commits != 1 {
		t.Fatalf("summary = %+v commits=%d", sum, st.commits)
	}
}

func TestLoad_OutcomeClassification(t *testing.T) {
	t.Parallel()

	rd := &scriptReader{steps: []step{
		{rec: []string{" 1 ", " Alice "}},
		{err: &parser.RecordError{Line: 3, Err: errors.New("bare quote")}},
		{rec: []string{}},
		{rec: []string{"short"}},
		{rec: []string{"3", "boom"}},
		{rec: []string{"4", "Dan"}},
	}}
	st := &fakeStore{failInsert: func(v []string) error {
		if v[1] == "boom" {
			return errors.New("constraint")
		}
		return nil
	}}

	var got []Outcome
	opt := quiet()
	opt.OnRow = func(r RowResult) { got = append(got, r.Outcome) }

	sum, err := Load(context.Background(), rd, st, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantOutcomes := []Outcome{Inserted, ParseSkipped, EmptySkipped, InsertFailed, InsertFailed, Inserted}
	if !reflect.DeepEqual(got, wantOutcomes) {
		t.Fatalf("outcomes = %v, want %v", got, wantOutcomes)
	}
	wantSum := Summary{Attempted: 4, Inserted: 2, ParseSkipped: 1, EmptySkipped: 1, InsertFailed: 2, Batches: 1}
	sum.Elapsed = 0
	if sum != wantSum {
		t.Fatalf("summary = %+v, want %+v", sum, wantSum)
	}
	if !reflect.DeepEqual(st.committed, [][]string{{"1", "Alice"}, {"4", "Dan"}}) {
		t.Fatalf("committed = %q (values must be trimmed)", st.committed)
	}
}

// TestLoad_CommitsEveryBatchSizeAttempted checks the threshold counts
// attempted rows, failed inserts included, and that a final commit follows.
func TestLoad_CommitsEveryBatchSizeAttempted(t *testing.T) {
	t.Parallel()

	var recs [][]string
	for i := 0; i < 7; i++ {
		recs = append(recs, []string{"x", "y"})
	}
	n := 0
	st := &fakeStore{failInsert: func([]string) error {
		n++
		if n%2 == 0 {
			return errors.New("drop")
		}
		return nil
	}}

	var batches []BatchStats
	opt := quiet()
	opt.BatchSize = 3
	opt.OnBatch = func(b BatchStats) { batches = append(batches, b) }

	sum, err := Load(context.Background(), rows(recs...), st, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.commits != 3 || sum.Batches != 3 {
		t.Fatalf("commits = %d batches = %d, want 3 (3+3+1)", st.commits, sum.Batches)
	}
	if batches[0].Attempted != 3 || batches[2].Attempted != 1 {
		t.Fatalf("batch stats = %+v", batches)
	}
	if sum.Inserted != 4 || sum.InsertFailed != 3 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestLoad_FatalErrors(t *testing.T) {
	t.Parallel()

	t.Run("commit", func(t *testing.T) {
		st := &fakeStore{failCommit: errors.New("disk full")}
		_, err := Load(context.Background(), rows([]string{"1", "a"}), st, quiet())
		if err == nil || !errors.Is(err, st.failCommit) {
			t.Fatalf("err = %v, want commit failure", err)
		}
	})

	t.Run("begin_after_commit", func(t *testing.T) {
		st := &fakeStore{failBeginAt: 2}
		opt := quiet()
		opt.BatchSize = 1
		sum, err := Load(context.Background(), rows([]string{"1", "a"}, []string{"2", "b"}), st, opt)
		if err == nil {
			t.Fatalf("expected begin error")
		}
		if sum.Batches != 1 || len(st.committed) != 1 {
			t.Fatalf("first batch should stay committed: %+v %q", sum, st.committed)
		}
	})

	t.Run("reader", func(t *testing.T) {
		st := &fakeStore{}
		rd := &scriptReader{steps: []step{{err: io.ErrUnexpectedEOF}}}
		if _, err := Load(context.Background(), rd, st, quiet()); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("err = %v", err)
		}
		if st.rollbacks != 1 {
			t.Fatalf("open batch not rolled back")
		}
	})
}

func TestLoad_ContextCancelRollsBack(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	st := &fakeStore{}
	st.onInsert = cancel

	sum, err := Load(ctx, rows([]string{"1", "a"}, []string{"2", "b"}), st, quiet())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if st.rollbacks != 1 || st.commits != 0 || len(st.committed) != 0 {
		t.Fatalf("rollbacks=%d commits=%d committed=%q", st.rollbacks, st.commits, st.committed)
	}
	if sum.Attempted != 1 {
		t.Fatalf("attempted = %d, want 1", sum.Attempted)
	}
}

func TestLoad_RejectsBadOptions(t *testing.T) {
	t.Parallel()

	opt := quiet()
	opt.BatchSize = 0
	if _, err := Load(context.Background(), rows(), &fakeStore{}, opt); err == nil {
		t.Fatalf("expected error for batch size 0")
	}
	opt = quiet()
	opt.Columns = nil
	if _, err := Load(context.Background(), rows(), &fakeStore{}, opt); err == nil {
		t.Fatalf("expected error for no columns")
	}
}

func TestLoad_EmptyInputStillCommits(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	sum, err := Load(context.Background(), rows(), st, quiet())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.commits != 1 || sum.Attempted != 0 {
		t.Fatalf("commits=%d summary=%+v", st.commits, sum)
	}
}

func TestShapeRow(t *testing.T) {
	if got := ShapeRow(nil, []string{" a ", "b", "c"}, 2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("truncate: %q", got)
	}
	if got := ShapeRow(nil, []string{"a"}, 3); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("short rows are not padded: %q", got)
	}
}

func TestOutcome_String(t *testing.T) {
	if InsertFailed.String() != "insert_failed" || Outcome(99).String() != "outcome(99)" {
		t.Fatalf("String mismatch")
	}
}
