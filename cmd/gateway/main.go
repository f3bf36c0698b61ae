package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/bookloop/bookloop/internal/api/http"
	auth "github.com/bookloop/bookloop/internal/auth/middleware"
	"github.com/bookloop/bookloop/internal/catalog"
	"github.com/bookloop/bookloop/internal/config"
	"github.com/bookloop/bookloop/internal/consent"
	"github.com/bookloop/bookloop/internal/db"
	"github.com/bookloop/bookloop/internal/logger"
	"github.com/bookloop/bookloop/internal/quiz"
	"github.com/bookloop/bookloop/internal/rbac"
	"github.com/bookloop/bookloop/internal/reading"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.Mode == config.ModeOnline)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Core wiring ---
	store := reading.NewSQLStore(dbh)
	cat := catalog.NewSQLCatalog(dbh)
	events := reading.NewLogPublisher(dbh)
	svc := reading.NewService(store, cat, events, cfg.ManualMethods, time.Now, log)

	gate := consent.NewGate(consent.NewSQLCodeSource(dbh))
	quizzes := quiz.NewManager(quiz.NewSQLBank(dbh), svc, time.Now)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Student flow
		pr.With(rbac.Require("record:create")).
			Post("/records", api.CreateRecordHandler(svc))
		pr.With(rbac.Require("record:view-own")).
			Get("/records", api.ListRecordsHandler(svc))
		pr.With(rbac.RequireAny("record:view-own", "record:view-all")).
			Get("/records/{recordID}", api.GetRecordHandler(svc))
		pr.With(rbac.Require("record:delete")).
			Delete("/records/{recordID}", api.DeleteRecordHandler(svc))

		pr.With(rbac.Require("record:edit")).
			Put("/records/{recordID}/progress", api.SetProgressHandler(svc))
		pr.With(rbac.Require("record:edit")).
			Post("/records/{recordID}/progress/release", api.ReleasePinHandler(svc))
		pr.With(rbac.Require("record:edit")).
			Put("/records/{recordID}/rating", api.SetRatingHandler(svc))
		pr.With(rbac.Require("record:edit")).
			Put("/records/{recordID}/notes", api.SetNotesHandler(svc))

		pr.With(rbac.Require("record:submit")).
			Get("/records/{recordID}/methods", api.MethodsHandler(svc))
		pr.With(rbac.Require("record:submit")).
			Post("/records/{recordID}/submit", api.SubmitHandler(svc))
		pr.With(rbac.Require("record:cancel")).
			Post("/records/{recordID}/cancel", api.CancelHandler(svc))

		// Parent gate + quiz
		pr.With(rbac.Require("consent:request")).
			Post("/records/{recordID}/consent/request", api.RequestUnlockHandler(svc, gate))
		pr.With(rbac.Require("consent:grant")).
			Post("/records/{recordID}/consent/grant", api.GrantUnlockHandler(svc))
		pr.With(rbac.Require("quiz:take")).
			Post("/records/{recordID}/quiz", api.StartQuizHandler(svc, gate, quizzes, cfg.AcademicPeriod))
		pr.With(rbac.Require("quiz:take")).
			Get("/quiz/{sessionID}", api.GetQuizHandler(quizzes))
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz/{sessionID}/answer", api.AnswerHandler(quizzes))
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz/{sessionID}/next", api.NextQuestionHandler(quizzes))
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz/{sessionID}/prev", api.PrevQuestionHandler(quizzes))
		pr.With(rbac.Require("quiz:take")).
			Post("/quiz/{sessionID}/submit", api.SubmitQuizHandler(quizzes))

		// Teacher review
		pr.With(rbac.Require("record:view-all")).
			Get("/records/pending", api.PendingRecordsHandler(svc))
		pr.With(rbac.Require("review:decide")).
			Post("/records/{recordID}/approve", api.ApproveHandler(svc))
		pr.With(rbac.Require("review:decide")).
			Post("/records/{recordID}/reject", api.RejectHandler(svc))
		pr.With(rbac.Require("review:decide")).
			Post("/records/{recordID}/revision", api.RequestRevisionHandler(svc))
		pr.With(rbac.Require("code:issue")).
			Post("/students/{studentID}/code", api.IssueCodeHandler(gate))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Infof("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
