package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"alumnihub/internal/config"
	"alumnihub/internal/database"
	"alumnihub/internal/models"
	"alumnihub/internal/repository"
)

// Loads alumni records from a CSV export into the registry. Expected header
// columns (order free, extras ignored): email, first_name, last_name,
// graduation_batch, birth_date. Rows without an email are skipped.
func main() {
	filePath := flag.String("file", "", "path to the alumni CSV file")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("Usage: import -file alumni.csv")
	}

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer f.Close()

	inserted, skipped, err := importCSV(db, f)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Import complete: %d records inserted, %d rows skipped", inserted, skipped)
}

func importCSV(db *database.DB, r io.Reader) (inserted, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["email"]; !ok {
		return 0, 0, fmt.Errorf("CSV is missing an email column")
	}

	repo := repository.NewAlumniRepository(db)

	tx, err := db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read CSV row: %w", err)
		}

		rec := recordFromRow(cols, row)
		if rec == nil {
			skipped++
			continue
		}
		if _, err := repo.Insert(tx, rec); err != nil {
			return 0, 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, skipped, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		cols[key] = i
	}
	return cols
}

func recordFromRow(cols map[string]int, row []string) *models.AlumniRecord {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	email := strings.ToLower(field("email"))
	if email == "" {
		return nil
	}

	rec := &models.AlumniRecord{
		Email:           email,
		FirstName:       field("first_name"),
		LastName:        field("last_name"),
		GraduationBatch: field("graduation_batch"),
	}

	if raw := field("birth_date"); raw != "" {
		for _, layout := range []string{"2006-01-02", "02/01/2006", "01/02/2006"} {
			if bd, err := time.Parse(layout, raw); err == nil {
				rec.BirthDate = &bd
				break
			}
		}
	}
	return rec
}
