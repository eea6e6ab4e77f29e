package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cpseval/adapters/postgres"
	"cpseval/internal/errors"
	"cpseval/internal/migration"
	"cpseval/internal/report"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// migrate creates the report tables and, when a directory is given, imports
// every report JSON file found below it (as written by `cpseval analyze
// --format json`).
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [report_dir]")
	}

	databaseURL := os.Args[1]

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema migration %s applied", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	reportDir := os.Args[2]

	files, err := findReportFiles(reportDir)
	if err != nil {
		log.Fatalf("Failed to find report files: %v", err)
	}
	log.Printf("Found %d report files to import", len(files))

	repo := postgres.NewReportRepository(db)
	imported := 0
	skipped := 0

	for _, file := range files {
		rep, err := loadReportFromFile(file)
		if err != nil {
			log.Printf("Failed to load report from %s: %v", file, err)
			skipped++
			continue
		}

		if _, err := repo.GetByRunID(ctx, rep.RunID); err == nil {
			log.Printf("Run %s already stored, skipping %s", rep.RunID, filepath.Base(file))
			skipped++
			continue
		} else if !errors.HasCode(err, errors.CodeNotFound) {
			log.Fatalf("Failed to look up run %s: %v", rep.RunID, err)
		}

		if err := repo.Save(ctx, rep); err != nil {
			log.Printf("Failed to save run %s: %v", rep.RunID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported run %s from %s", rep.RunID, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findReportFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadReportFromFile(filePath string) (*report.Report, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	if rep.RunID == "" {
		return nil, errors.InvalidInput("file holds no run_id")
	}

	return &rep, nil
}
