package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/clin-sim/clinsim-grader/internal/api/http"
	auth "github.com/clin-sim/clinsim-grader/internal/auth/middleware"
	"github.com/clin-sim/clinsim-grader/internal/casefile"
	"github.com/clin-sim/clinsim-grader/internal/config"
	"github.com/clin-sim/clinsim-grader/internal/db"
	"github.com/clin-sim/clinsim-grader/internal/grading"
	"github.com/clin-sim/clinsim-grader/internal/judge"
	"github.com/clin-sim/clinsim-grader/internal/storage"
	"github.com/clin-sim/clinsim-grader/internal/submission"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := submission.NewSQLStore(dbh, cfg.DBDriver)
	events := submission.NewEventRepo(dbh)

	// --- Case files ---
	bs, err := storage.NewFSStore(cfg.CaseBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	cases := casefile.NewLoader(bs)

	// --- Grading engine ---
	engineOpts := []grading.Option{
		grading.WithDefaultPassingScore(cfg.DefaultPassingScore),
		grading.WithDebug(cfg.GradingDebug),
	}
	if cfg.JudgeAPIKey != "" && cfg.JudgeModel != "" {
		engineOpts = append(engineOpts,
			grading.WithJudge(judge.NewClient(cfg.JudgeBaseURL, cfg.JudgeAPIKey, cfg.JudgeModel, cfg.JudgeTimeout)))
	} else {
		log.Printf("judge not configured; llm criteria will fall back to rules")
	}
	engine := grading.NewEngine(engineOpts...)
	svc := submission.NewService(store, cases, engine, events)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	creds := map[string]auth.Credential{
		cfg.AdminUser: {PassHash: cfg.AdminPassHash, Role: "admin"},
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, creds))

	// Interactive API under the standard timeout.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Timeout(30 * time.Second))
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/cases", api.ListCasesHandler(cases))
		pr.Get("/cases/{caseID}", api.GetCaseHandler(cases))

		pr.Post("/conversations", api.CreateConversationHandler(store))
		pr.Get("/conversations/{conversationID}", api.GetConversationHandler(store))
		pr.Post("/conversations/{conversationID}/messages", api.AppendMessageHandler(store))
		pr.Post("/conversations/{conversationID}/inputs", api.SetSupplementalInputHandler(store))
		pr.Get("/conversations/{conversationID}/result", api.GetResultHandler(svc))

		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	// Grading routes wait on the judge; no interactive timeout here.
	r.Group(func(gr chi.Router) {
		gr.Use(auth.JWTMiddleware(authSvc))
		gr.Post("/conversations/{conversationID}/submit", api.SubmitConversationHandler(svc))
		gr.Post("/grade", api.GradeHandler(cases, engine))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
