package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// OpenSQLite opens the SQLite sink database at the given path. WAL mode keeps
// the table readable while a load transaction is open, so readers see either
// the old table or the new one, never a mix.
func OpenSQLite(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sink database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("error applying %q: %w", pragma, err)
		}
	}

	log.Infow("sink database opened", "path", path)
	return db, nil
}

// ConnectSQLServer opens a connection to a SQL Server extraction source and
// verifies it with a short ping.
func ConnectSQLServer(connString string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("error opening SQL Server source: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to SQL Server source (ping failed): %w", err)
	}

	log.Infow("connected to SQL Server source")
	return db, nil
}

// ConnectMongo opens a connection to a MongoDB extraction source and verifies
// it with a short ping against the primary.
func ConnectMongo(connString string, log *zap.SugaredLogger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connString))
	if err != nil {
		return nil, fmt.Errorf("error creating MongoDB client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)

		return nil, fmt.Errorf("error connecting to MongoDB source (ping failed): %w", err)
	}

	log.Infow("connected to MongoDB source")
	return client, nil
}
