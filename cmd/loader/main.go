package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/adaptmel/missionquery/internal/ingest"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "adaptation_mission.db", "path to the SQLite database")
	migrationsPath := flag.String("migrations", "./migrations", "path to the migrations directory")
	participantsFile := flag.String("participants", "", "participants export file (.xlsx or .csv)")
	projectsFile := flag.String("projects", "", "projects export file (.xlsx or .csv)")
	flag.Parse()

	if *participantsFile == "" && *projectsFile == "" {
		log.Fatal("nothing to load: provide -participants and/or -projects")
	}

	fmt.Println("=== Running Database Migrations ===")
	if err := ingest.RunMigrations(ingest.MigrationConfig{
		DatabasePath:   *dbPath,
		MigrationsPath: *migrationsPath,
	}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("✓ Migrations applied")

	loader, err := ingest.NewLoader(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer loader.Close()

	if *participantsFile != "" {
		n, err := loader.LoadParticipants(*participantsFile)
		if err != nil {
			log.Fatalf("Failed to load participants: %v", err)
		}
		fmt.Printf("✓ Loaded %d participants from %s\n", n, *participantsFile)
	}

	if *projectsFile != "" {
		n, err := loader.LoadProjects(*projectsFile)
		if err != nil {
			log.Fatalf("Failed to load projects: %v", err)
		}
		fmt.Printf("✓ Loaded %d projects from %s\n", n, *projectsFile)
	}

	summary, err := loader.Summary()
	if err != nil {
		log.Fatalf("Failed to compute load summary: %v", err)
	}

	fmt.Println("\n=== Load Summary ===")
	fmt.Printf("Participants:            %d (%d countries)\n", summary.Participants, summary.ParticipantCountries)
	fmt.Printf("Projects:                %d\n", summary.Projects)
	fmt.Printf("Participant funding:     %.2f MEUR\n", summary.ParticipantFundingMEUR)
	fmt.Printf("Project budgets:         %.2f MEUR\n", summary.ProjectBudgetMEUR)
	fmt.Printf("EU contribution:         %.2f MEUR\n", summary.EUContributionMEUR)
	fmt.Printf("Project date range:      %s\n", summary.DateRange)
	fmt.Printf("Coordinator joins:       %d\n", summary.CoordinatorJoins)
}
