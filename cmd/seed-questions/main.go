package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/database"
	"github.com/stemsi/examprep-backend/internal/logger"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/repository"
	"github.com/stemsi/examprep-backend/internal/service"
)

func main() {
	var path string
	flag.StringVar(&path, "file", "seed.yaml", "YAML file describing banks, categories, questions and cases")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	seed, err := loadSeed(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read seed file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	content := service.NewAdminContentService(
		repository.NewCatalogRepository(pool),
		repository.NewQuestionRepository(pool),
		repository.NewCaseRepository(pool),
		repository.NewStatsRepository(pool),
		log,
	)

	fmt.Printf("=== Seeding %d bank(s), %d case(s) ===\n", len(seed.Banks), len(seed.Cases))

	var questions int
	for _, b := range seed.Banks {
		bank, err := content.CreateBank(ctx, model.CreateQuestionBankRequest{
			Name: b.Name, Description: b.Description, IsFree: b.Free,
		})
		if err != nil {
			log.Fatal().Err(err).Str("bank", b.Name).Msg("Failed to create bank")
		}

		for _, c := range b.Categories {
			cat, err := content.CreateCategory(ctx, model.CreateCategoryRequest{
				BankID: bank.ID, Name: c.Name, Description: c.Description,
			})
			if err != nil {
				log.Fatal().Err(err).Str("category", c.Name).Msg("Failed to create category")
			}

			for i, q := range c.Questions {
				if _, err := content.CreateQuestion(ctx, q.request(cat.ID)); err != nil {
					log.Fatal().Err(err).
						Str("category", c.Name).
						Int("index", i).
						Msg("Failed to create question")
				}
				questions++
			}
		}
		fmt.Printf("Bank %q seeded\n", bank.Name)
	}

	for _, c := range seed.Cases {
		req := model.CreateCaseRequest{Title: c.Title, Scenario: c.Scenario, Instructions: c.Instructions}
		for _, q := range c.Questions {
			req.Questions = append(req.Questions, model.CaseQuestionInput{
				Prompt: q.Prompt, CorrectAnswer: q.Answer, Explanation: q.Explanation, Hint: q.Hint,
			})
		}
		if _, err := content.CreateCase(ctx, req); err != nil {
			log.Fatal().Err(err).Str("case", c.Title).Msg("Failed to create case")
		}
	}

	fmt.Printf("\nDone. %d question(s) and %d case(s) created.\n", questions, len(seed.Cases))
}

type seedFile struct {
	Banks []seedBank `yaml:"banks"`
	Cases []seedCase `yaml:"cases"`
}

type seedBank struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Free        bool           `yaml:"free"`
	Categories  []seedCategory `yaml:"categories"`
}

type seedCategory struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Questions   []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	Text        string       `yaml:"text"`
	Difficulty  string       `yaml:"difficulty"`
	Explanation string       `yaml:"explanation"`
	ImageURL    *string      `yaml:"image_url"`
	Options     []seedOption `yaml:"options"`
}

type seedOption struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type seedCase struct {
	Title        string             `yaml:"title"`
	Scenario     string             `yaml:"scenario"`
	Instructions string             `yaml:"instructions"`
	Questions    []seedCaseQuestion `yaml:"questions"`
}

type seedCaseQuestion struct {
	Prompt      string  `yaml:"prompt"`
	Answer      string  `yaml:"answer"`
	Explanation string  `yaml:"explanation"`
	Hint        *string `yaml:"hint"`
}

func (q seedQuestion) request(categoryID uuid.UUID) model.CreateQuestionRequest {
	req := model.CreateQuestionRequest{
		CategoryID:  categoryID,
		Text:        q.Text,
		ImageURL:    q.ImageURL,
		Difficulty:  q.Difficulty,
		Explanation: q.Explanation,
		Options:     make([]model.OptionInput, len(q.Options)),
	}
	for i, o := range q.Options {
		req.Options[i] = model.OptionInput{Text: o.Text, IsCorrect: o.Correct}
	}
	return req
}

func loadSeed(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s seedFile
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &s, nil
}
