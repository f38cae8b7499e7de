package warehouse

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLookupDialectAliases(t *testing.T) {
	t.Parallel()
	for alias, want := range map[string]string{
		"sqlserver": "sqlserver", "MSSQL": "sqlserver",
		"postgres": "postgres", "pgx": "postgres",
		"sqlite": "sqlite", " sqlite3 ": "sqlite",
		"mysql": "mysql", "mariadb": "mysql",
	} {
		d, err := LookupDialect(alias)
		if err != nil {
			t.Fatalf("%q: %v", alias, err)
		}
		if d.Name() != want {
			t.Fatalf("%q resolved to %s, want %s", alias, d.Name(), want)
		}
	}
	if _, err := LookupDialect("oracle"); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()
	tb := salesTable()
	cases := map[string]string{
		"sqlserver": "INSERT INTO [dbo].[sales] ([order_id], [order_date], [amount], [note]) VALUES (@p1, @p2, @p3, @p4)",
		"postgres":  `INSERT INTO "dbo"."sales" ("order_id", "order_date", "amount", "note") VALUES ($1, $2, $3, $4)`,
		"sqlite":    `INSERT INTO "sales" ("order_id", "order_date", "amount", "note") VALUES (?, ?, ?, ?)`,
		"mysql":     "INSERT INTO `dbo`.`sales` (`order_id`, `order_date`, `amount`, `note`) VALUES (?, ?, ?, ?)",
	}
	for name, want := range cases {
		d, _ := LookupDialect(name)
		if got := d.InsertSQL(tb); got != want {
			t.Errorf("%s:\n got %s\nwant %s", name, got, want)
		}
	}
}

func TestSQLServerDefaultsToDbo(t *testing.T) {
	t.Parallel()
	d, _ := LookupDialect("sqlserver")
	tb := salesTable()
	tb.Schema = ""
	q, args := d.TableExistsSQL(tb)
	if !strings.Contains(q, "INFORMATION_SCHEMA.TABLES") || args[0] != "dbo" || args[1] != "sales" {
		t.Fatalf("unexpected catalog query %q %v", q, args)
	}
	if got := d.MaxSQL(tb, "order_date"); got != "SELECT MAX([order_date]) FROM [dbo].[sales]" {
		t.Fatalf("max sql: %s", got)
	}
}

func TestDedupSQLPartitionsByEveryColumn(t *testing.T) {
	t.Parallel()
	tb := salesTable()
	for _, name := range []string{"sqlserver", "postgres", "sqlite", "mysql"} {
		d, _ := LookupDialect(name)
		stmts := d.DedupSQL(tb)
		joined := strings.Join(stmts, "\n")
		if !strings.Contains(joined, "ROW_NUMBER() OVER (PARTITION BY "+quotedList(d, tb.ColumnNames())) {
			t.Errorf("%s: partition list missing:\n%s", name, joined)
		}
	}
	d, _ := LookupDialect("mysql")
	if n := len(d.DedupSQL(tb)); n != 5 {
		t.Fatalf("mysql dedup statements = %d, want 5", n)
	}
}

func TestCreateTableSQLColumnTypes(t *testing.T) {
	t.Parallel()
	tb := salesTable()
	checks := map[string][]string{
		"sqlserver": {"[order_id] BIGINT NULL", "[order_date] DATETIME2 NULL", "[amount] DECIMAL(12,2) NULL", "[note] NVARCHAR(50) NULL"},
		"postgres":  {`"order_date" TIMESTAMP NULL`, `"amount" NUMERIC(12,2) NULL`, `"note" VARCHAR(50) NULL`},
		"sqlite":    {`"order_id" INTEGER NULL`, `"order_date" TEXT NULL`},
		"mysql":     {"`order_date` DATETIME(6) NULL", "`note` VARCHAR(50) NULL"},
	}
	for name, wants := range checks {
		d, _ := LookupDialect(name)
		ddl := d.CreateTableSQL(tb)
		for _, w := range wants {
			if !strings.Contains(ddl, w) {
				t.Errorf("%s: %q missing from\n%s", name, w, ddl)
			}
		}
	}
}

func TestQuoteEscapes(t *testing.T) {
	t.Parallel()
	ss, _ := LookupDialect("sqlserver")
	pg, _ := LookupDialect("postgres")
	my, _ := LookupDialect("mysql")
	if got := ss.Quote("a]b"); got != "[a]]b]" {
		t.Errorf("sqlserver quote: %s", got)
	}
	if got := pg.Quote(`a"b`); got != `"a""b"` {
		t.Errorf("postgres quote: %s", got)
	}
	if got := my.Quote("a`b"); got != "`a``b`" {
		t.Errorf("mysql quote: %s", got)
	}
}

func TestSQLiteBindValue(t *testing.T) {
	t.Parallel()
	d, _ := LookupDialect("sqlite")
	ts := time.Date(2023, 1, 4, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	if got := d.BindValue(Column{Type: TypeDateTime}, ts); got != "2023-01-04 08:30:00.000000000" {
		t.Fatalf("time bind = %v", got)
	}
	if got := d.BindValue(Column{Type: TypeDecimal}, decimal.RequireFromString("12.50")); got != "12.5" {
		t.Fatalf("decimal bind = %v", got)
	}
	if got := d.BindValue(Column{Type: TypeInt}, int64(3)); got != int64(3) {
		t.Fatalf("int bind = %v", got)
	}
}
