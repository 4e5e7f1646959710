package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, snap *Snapshot, name string, columns ...string) *Table {
	t.Helper()
	table, err := snap.CreateTable(name)
	require.NoError(t, err)
	for _, c := range columns {
		_, err := table.CreateColumn(c, TypeText)
		require.NoError(t, err)
	}
	return table
}

func TestSnapshot_CreateTable(t *testing.T) {
	snap := NewSnapshot()

	t.Run("creates and resolves", func(t *testing.T) {
		table, err := snap.CreateTable("users")
		require.NoError(t, err)
		assert.Equal(t, "users", table.Name())
		assert.Same(t, snap, table.Snapshot())

		got, err := snap.Table("users")
		require.NoError(t, err)
		assert.Same(t, table, got)
		assert.True(t, snap.HasTable("users"))
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		_, err := snap.CreateTable("users")
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := snap.CreateTable("")
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := snap.Table("ghosts")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSnapshot_TablesOrder(t *testing.T) {
	snap := NewSnapshot()
	for _, name := range []string{"c", "a", "b"} {
		_, err := snap.CreateTable(name)
		require.NoError(t, err)
	}

	var names []string
	for _, table := range snap.Tables() {
		names = append(names, table.Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names, "tables keep insertion order")
}

func TestSnapshot_RemoveTable(t *testing.T) {
	snap := NewSnapshot()
	users := newTestTable(t, snap, "users", "id")
	posts := newTestTable(t, snap, "posts", "author_id")

	userID, err := users.Column("id")
	require.NoError(t, err)
	authorID, err := posts.Column("author_id")
	require.NoError(t, err)
	_, err = posts.AddForeignKey(users, []*Column{authorID}, []*Column{userID}, Cascade, NoAction)
	require.NoError(t, err)

	t.Run("rejects removing a referenced table", func(t *testing.T) {
		err := snap.RemoveTable("users")
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("removes the referencing table first", func(t *testing.T) {
		require.NoError(t, snap.RemoveTable("posts"))
		require.NoError(t, snap.RemoveTable("users"))
		assert.True(t, snap.Empty())
	})

	t.Run("missing table", func(t *testing.T) {
		assert.ErrorIs(t, snap.RemoveTable("posts"), ErrNotFound)
	})
}

func TestSnapshot_RenameTable(t *testing.T) {
	snap := NewSnapshot()
	users := newTestTable(t, snap, "users", "id")
	posts := newTestTable(t, snap, "posts", "author_id")

	userID, err := users.Column("id")
	require.NoError(t, err)
	authorID, err := posts.Column("author_id")
	require.NoError(t, err)
	fk, err := posts.AddForeignKey(users, []*Column{authorID}, []*Column{userID}, NoAction, NoAction)
	require.NoError(t, err)

	require.NoError(t, snap.RenameTable("users", "accounts"))
	assert.False(t, snap.HasTable("users"))
	assert.True(t, snap.HasTable("accounts"))
	assert.Equal(t, "accounts", fk.Target().Name(), "foreign keys follow the renamed table")

	assert.ErrorIs(t, snap.RenameTable("accounts", "posts"), ErrDuplicateName)
}

func TestTable_Columns(t *testing.T) {
	snap := NewSnapshot()
	table := newTestTable(t, snap, "events")

	id, err := table.CreateColumn("id", TypeInteger)
	require.NoError(t, err)
	_, err = table.CreateColumn("payload", TypeBlob)
	require.NoError(t, err)

	t.Run("insertion order", func(t *testing.T) {
		assert.Equal(t, []string{"id", "payload"}, table.ColumnNames())
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := table.CreateColumn("id", TypeText)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("attributes round-trip", func(t *testing.T) {
		id.SetNotNull(true)
		id.SetDefault("0")
		assert.True(t, id.NotNull())
		dflt, ok := id.Default()
		assert.True(t, ok)
		assert.Equal(t, "0", dflt)

		id.ClearDefault()
		_, ok = id.Default()
		assert.False(t, ok)
	})

	t.Run("rename keeps identity", func(t *testing.T) {
		require.NoError(t, table.RenameColumn("payload", "body"))
		assert.False(t, table.HasColumn("payload"))
		got, err := table.Column("body")
		require.NoError(t, err)
		assert.Equal(t, TypeBlob, got.Type())
	})
}

func TestColumn_SameDefinition(t *testing.T) {
	build := func(typ ColumnType, mutate func(*Column)) *Column {
		snap := NewSnapshot()
		table := newTestTable(t, snap, "events")
		c, err := table.CreateColumn("payload", typ)
		require.NoError(t, err)
		if mutate != nil {
			mutate(c)
		}
		return c
	}

	base := build(TypeText, nil)
	tests := []struct {
		name   string
		typ    ColumnType
		mutate func(*Column)
		same   bool
	}{
		{"identical", TypeText, nil, true},
		{"type differs", TypeBlob, nil, false},
		{"nullability differs", TypeText, func(c *Column) { c.SetNotNull(true) }, false},
		{"default added", TypeText, func(c *Column) { c.SetDefault("'x'") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := build(tt.typ, tt.mutate)
			assert.Equal(t, tt.same, base.SameDefinition(other))
			assert.Equal(t, tt.same, other.SameDefinition(base))
		})
	}

	t.Run("default literal compared", func(t *testing.T) {
		a := build(TypeText, func(c *Column) { c.SetDefault("1") })
		b := build(TypeText, func(c *Column) { c.SetDefault("2") })
		assert.False(t, a.SameDefinition(b))
		b.SetDefault("1")
		assert.True(t, a.SameDefinition(b))
	})
}

func TestTable_SetPrimaryKey(t *testing.T) {
	snap := NewSnapshot()
	table := newTestTable(t, snap, "pairs", "a", "b")
	a, _ := table.Column("a")
	b, _ := table.Column("b")

	t.Run("contiguous slots accepted", func(t *testing.T) {
		require.NoError(t, table.SetPrimaryKey(a, 1))
		require.NoError(t, table.SetPrimaryKey(b, 2))
		pk := table.PrimaryKey()
		require.Len(t, pk, 2)
		assert.Same(t, a, pk[0])
		assert.Same(t, b, pk[1])
	})

	t.Run("occupied slot rejected", func(t *testing.T) {
		err := table.SetPrimaryKey(b, 1)
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("sparse slot rejected", func(t *testing.T) {
		other := newTestTable(t, snap, "sparse", "x")
		x, _ := other.Column("x")
		err := other.SetPrimaryKey(x, 3)
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("non-positive slot rejected", func(t *testing.T) {
		other := newTestTable(t, snap, "zero", "x")
		x, _ := other.Column("x")
		assert.ErrorIs(t, other.SetPrimaryKey(x, 0), ErrStructuralViolation)
	})

	t.Run("foreign column rejected", func(t *testing.T) {
		other := newTestTable(t, snap, "other", "x")
		x, _ := other.Column("x")
		assert.ErrorIs(t, table.SetPrimaryKey(x, 3), ErrStructuralViolation)
	})
}

func TestTable_AddUnique(t *testing.T) {
	snap := NewSnapshot()
	table := newTestTable(t, snap, "users", "email", "name")
	email, _ := table.Column("email")
	name, _ := table.Column("name")

	tests := []struct {
		testName string
		columns  []*Column
		wantErr  error
	}{
		{testName: "single column", columns: []*Column{email}},
		{testName: "multi column", columns: []*Column{email, name}},
		{testName: "empty list", columns: nil, wantErr: ErrStructuralViolation},
		{testName: "duplicate member", columns: []*Column{email, email}, wantErr: ErrStructuralViolation},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			u, err := table.AddUnique(tt.columns...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.columns, u.Columns())
		})
	}
}

func TestTable_AddForeignKey(t *testing.T) {
	snap := NewSnapshot()
	users := newTestTable(t, snap, "users", "id")
	posts := newTestTable(t, snap, "posts", "author_id", "editor_id")
	userID, _ := users.Column("id")
	authorID, _ := posts.Column("author_id")
	editorID, _ := posts.Column("editor_id")

	t.Run("valid key", func(t *testing.T) {
		fk, err := posts.AddForeignKey(users, []*Column{authorID}, []*Column{userID}, Cascade, SetNull)
		require.NoError(t, err)
		assert.Same(t, users, fk.Target())
		assert.Equal(t, Cascade, fk.OnDelete())
		assert.Equal(t, SetNull, fk.OnUpdate())
	})

	t.Run("self reference rejected", func(t *testing.T) {
		_, err := posts.AddForeignKey(posts, []*Column{authorID}, []*Column{editorID}, NoAction, NoAction)
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("length mismatch rejected", func(t *testing.T) {
		_, err := posts.AddForeignKey(users, []*Column{authorID, editorID}, []*Column{userID}, NoAction, NoAction)
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("cross snapshot rejected", func(t *testing.T) {
		otherSnap := NewSnapshot()
		foreign := newTestTable(t, otherSnap, "users", "id")
		foreignID, _ := foreign.Column("id")
		_, err := posts.AddForeignKey(foreign, []*Column{authorID}, []*Column{foreignID}, NoAction, NoAction)
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("invalid action rejected", func(t *testing.T) {
		_, err := posts.AddForeignKey(users, []*Column{editorID}, []*Column{userID}, Action("EXPLODE"), NoAction)
		assert.ErrorIs(t, err, ErrStructuralViolation)
	})

	t.Run("remove", func(t *testing.T) {
		fks := posts.ForeignKeys()
		require.Len(t, fks, 1)
		require.NoError(t, posts.RemoveForeignKey(fks[0]))
		assert.Empty(t, posts.ForeignKeys())
		assert.ErrorIs(t, posts.RemoveForeignKey(fks[0]), ErrNotFound)
	})
}

func TestTable_CreateIndex(t *testing.T) {
	snap := NewSnapshot()
	users := newTestTable(t, snap, "users", "email")
	posts := newTestTable(t, snap, "posts", "title")
	email, _ := users.Column("email")
	title, _ := posts.Column("title")

	ix, err := users.CreateIndex("idx_email", true, email)
	require.NoError(t, err)
	assert.True(t, ix.Unique())

	t.Run("names are snapshot scoped", func(t *testing.T) {
		_, err := posts.CreateIndex("idx_email", false, title)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("resolvable by snapshot name", func(t *testing.T) {
		got, ok := snap.IndexByName("idx_email")
		require.True(t, ok)
		assert.Same(t, ix, got)
	})

	t.Run("remove frees the name", func(t *testing.T) {
		require.NoError(t, users.RemoveIndex("idx_email"))
		_, ok := snap.IndexByName("idx_email")
		assert.False(t, ok)

		_, err := posts.CreateIndex("idx_email", false, title)
		assert.NoError(t, err)
	})
}

func TestTable_RemoveColumn_Cascades(t *testing.T) {
	snap := NewSnapshot()
	users := newTestTable(t, snap, "users", "id", "email", "name")
	id, _ := users.Column("id")
	email, _ := users.Column("email")
	name, _ := users.Column("name")

	require.NoError(t, users.SetPrimaryKey(id, 1))
	_, err := users.AddUnique(email, name)
	require.NoError(t, err)
	_, err = users.CreateIndex("idx_users_email", false, email)
	require.NoError(t, err)

	posts := newTestTable(t, snap, "posts", "author_id")
	authorID, _ := posts.Column("author_id")
	_, err = posts.AddForeignKey(users, []*Column{authorID}, []*Column{id}, NoAction, NoAction)
	require.NoError(t, err)

	t.Run("constraints shrink or drop with the column", func(t *testing.T) {
		require.NoError(t, users.RemoveColumn("email"))

		uniques := users.Uniques()
		require.Len(t, uniques, 1, "unique loses the member but survives with one left")
		assert.Equal(t, "name", uniques[0].Columns()[0].Name())

		assert.Empty(t, users.Indexes(), "index on the removed column is dropped")
		_, ok := snap.IndexByName("idx_users_email")
		assert.False(t, ok)
	})

	t.Run("foreign key dies with a member column", func(t *testing.T) {
		require.NoError(t, posts.RemoveColumn("author_id"))
		assert.Empty(t, posts.ForeignKeys())
	})

	t.Run("primary key shrinks", func(t *testing.T) {
		require.NoError(t, users.RemoveColumn("id"))
		assert.Empty(t, users.PrimaryKey())
	})
}

func TestSnapshot_Verify(t *testing.T) {
	snap := NewSnapshot()
	users := newTestTable(t, snap, "users", "id", "email")
	id, _ := users.Column("id")
	email, _ := users.Column("email")
	require.NoError(t, users.SetPrimaryKey(id, 1))
	_, err := users.AddUnique(email)
	require.NoError(t, err)
	_, err = users.CreateIndex("idx_users_email", true, email)
	require.NoError(t, err)

	posts := newTestTable(t, snap, "posts", "author_id")
	authorID, _ := posts.Column("author_id")
	_, err = posts.AddForeignKey(users, []*Column{authorID}, []*Column{id}, Cascade, NoAction)
	require.NoError(t, err)

	assert.NoError(t, snap.Verify())
}
