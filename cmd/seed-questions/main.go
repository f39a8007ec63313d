package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// seedFile is the layout of a -file payload.
type seedFile struct {
	Chapter   string                     `json:"chapter" binding:"required,max=200"`
	Exam      *seedExam                  `json:"exam"`
	Questions []model.AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type seedExam struct {
	Title            string  `json:"title" binding:"required,max=200"`
	TotalQuestions   int     `json:"total_questions" binding:"min=0"`
	PassThreshold    float64 `json:"pass_threshold" binding:"min=0,max=100"`
	TimeLimitSeconds int     `json:"time_limit_seconds" binding:"min=0,max=3600"`
	UseTimer         bool    `json:"use_timer"`
}

func main() {
	file := flag.String("file", "", "JSON seed file; a built-in sample chapter is used when empty")
	invalidate := flag.String("invalidate-exam", "", "drop the cached exam and question sets of this exam ID instead of seeding")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := validator.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register validators")
	}

	if *invalidate != "" {
		invalidateExam(ctx, cfg, log, *invalidate)
		return
	}

	seed := sample()
	if *file != "" {
		raw, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to read seed file")
		}
		seed = seedFile{}
		if err := json.Unmarshal(raw, &seed); err != nil {
			log.Fatal().Err(err).Msg("Failed to decode seed file")
		}
	}
	if fields := validator.Struct(&seed); fields != nil {
		for field, msg := range fields {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		log.Fatal().Msg("Seed file is invalid")
	}
	for i, q := range seed.Questions {
		if !hasOption(q) {
			log.Fatal().Int("question", i).Str("correct_option", q.CorrectOption).Msg("Correct option is not one of the choices")
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	chapterRepo := repository.NewChapterRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	fmt.Printf("=== Seeding chapter %q (%d questions) ===\n", seed.Chapter, len(seed.Questions))

	chapter := &model.Chapter{Title: seed.Chapter}
	if err := chapterRepo.Create(ctx, chapter); err != nil {
		log.Fatal().Err(err).Msg("Failed to create chapter")
	}
	fmt.Printf("Created chapter with ID: %s\n", chapter.ID)

	for i, req := range seed.Questions {
		q := &model.Question{
			ChapterID:     chapter.ID,
			Prompt:        req.Prompt,
			Options:       req.Options,
			CorrectOption: req.CorrectOption,
			OrderNum:      req.OrderNum,
		}
		if q.OrderNum == 0 {
			q.OrderNum = i + 1
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Int("question", i).Msg("Failed to create question")
		}
	}
	fmt.Printf("Inserted %d questions\n", len(seed.Questions))

	// Warm the question cache so the first session does not pay for the miss.
	if rdb, err := database.NewRedisClient(ctx, cfg, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, question cache not warmed")
	} else {
		catalog := service.NewCatalogService(questionRepo, examRepo, rdb, cfg.QuestionCacheTTL, log)
		if n, err := catalog.WarmChapter(ctx, chapter.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to warm question cache")
		} else {
			fmt.Printf("Cached %d questions\n", n)
		}
		_ = rdb.Close()
	}

	if seed.Exam == nil {
		return
	}
	exam := &model.Exam{
		Title:            seed.Exam.Title,
		ChapterID:        chapter.ID,
		TotalQuestions:   seed.Exam.TotalQuestions,
		PassThreshold:    seed.Exam.PassThreshold,
		TimeLimitSeconds: seed.Exam.TimeLimitSeconds,
		UseTimer:         seed.Exam.UseTimer,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam %q with ID: %s\n", exam.Title, exam.ID)
}

// invalidateExam is used after questions of a seeded chapter were edited in
// place, so live servers stop serving the cached copy.
func invalidateExam(ctx context.Context, cfg *config.Config, log zerolog.Logger, rawID string) {
	examID, err := uuid.Parse(rawID)
	if err != nil {
		log.Fatal().Err(err).Str("exam_id", rawID).Msg("Invalid exam ID")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examRepo := repository.NewExamRepository(pool)
	exam, err := examRepo.GetByID(ctx, examID)
	if err != nil {
		log.Fatal().Err(err).Str("exam_id", rawID).Msg("Failed to load exam")
	}

	catalog := service.NewCatalogService(repository.NewQuestionRepository(pool), examRepo, rdb, cfg.QuestionCacheTTL, log)
	if err := catalog.Invalidate(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to invalidate cache")
	}
	fmt.Printf("Dropped cached entries of exam %q\n", exam.Title)
}

func hasOption(q model.AddQuestionRequest) bool {
	for _, o := range q.Options {
		if o.Label == q.CorrectOption {
			return true
		}
	}
	return false
}

func sample() seedFile {
	abcd := func(a, b, c, d string) []model.Option {
		return []model.Option{{Label: "A", Text: a}, {Label: "B", Text: b}, {Label: "C", Text: c}, {Label: "D", Text: d}}
	}
	return seedFile{
		Chapter: "Dasar Jaringan Komputer",
		Exam: &seedExam{
			Title:            "Kuis Dasar Jaringan",
			PassThreshold:    70,
			TimeLimitSeconds: 30,
			UseTimer:         true,
		},
		Questions: []model.AddQuestionRequest{
			{Prompt: "Layer OSI yang menangani routing adalah?", Options: abcd("Data Link", "Network", "Transport", "Session"), CorrectOption: "B"},
			{Prompt: "Port default HTTPS adalah?", Options: abcd("80", "21", "443", "8080"), CorrectOption: "C"},
			{Prompt: "Protokol untuk mendapatkan alamat IP otomatis adalah?", Options: abcd("DNS", "DHCP", "ARP", "ICMP"), CorrectOption: "B"},
			{Prompt: "Perintah untuk menguji konektivitas ke host lain adalah?", Options: abcd("ping", "ls", "cd", "chmod"), CorrectOption: "A"},
			{Prompt: "Subnet mask /24 sama dengan?", Options: abcd("255.0.0.0", "255.255.0.0", "255.255.255.0", "255.255.255.255"), CorrectOption: "C"},
		},
	}
}
