package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/venue-seat-allocator/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.JournalConfig{DBUser: "venue", DBPass: "s3cret", DBHost: "db", DBPort: "3307", DBName: "seats"})
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", dsn, err)
	}
	if mc.User != "venue" || mc.Passwd != "s3cret" || mc.Addr != "db:3307" || mc.DBName != "seats" {
		t.Errorf("parsed = %+v", mc)
	}
	if !mc.ParseTime || mc.Loc.String() != "UTC" {
		t.Errorf("ParseTime=%v Loc=%v", mc.ParseTime, mc.Loc)
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	dsn := DSN(config.JournalConfig{DBUser: "venue", DBHost: "127.0.0.1", DBPort: "3306", DBName: "seats"})
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatal(err)
	}
	if mc.Passwd != "" || mc.User != "venue" {
		t.Errorf("parsed = %+v", mc)
	}
}
