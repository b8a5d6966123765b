package router

import (
	"database/sql"
	"net/http"
	"path/filepath"

	"lawfort/config"
	"lawfort/config/features"
	"lawfort/internal/access"
	appHandler "lawfort/internal/application"
	appRepository "lawfort/internal/application/repository"
	appService "lawfort/internal/application/service"
	"lawfort/internal/audit"
	contentHandler "lawfort/internal/content"
	content "lawfort/internal/content/model"
	contentRepository "lawfort/internal/content/repository"
	contentService "lawfort/internal/content/service"
	dashboardHandler "lawfort/internal/dashboard"
	dashboardRepository "lawfort/internal/dashboard/repository"
	dashboardService "lawfort/internal/dashboard/service"
	engagementHandler "lawfort/internal/engagement"
	engagementRepository "lawfort/internal/engagement/repository"
	engagementService "lawfort/internal/engagement/service"
	libraryHandler "lawfort/internal/library"
	libraryRepository "lawfort/internal/library/repository"
	libraryService "lawfort/internal/library/service"
	notificationHandler "lawfort/internal/notification"
	notificationRepository "lawfort/internal/notification/repository"
	notificationService "lawfort/internal/notification/service"
	userHandler "lawfort/internal/user"
	userRepository "lawfort/internal/user/repository"
	userService "lawfort/internal/user/service"
	"lawfort/middleware"
	"lawfort/pkg/response"
	"lawfort/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Config  config.Config
	Flags   features.Flags
	DB      *sql.DB
	Hub     *socket.Hub
	Redis   *redis.Client
	Limiter *middleware.RateLimiter
}

func Setup(d Deps) http.Handler {
	auditLog := audit.NewLog(d.DB)

	notifications := notificationService.NewNotificationService(notificationRepository.NewNotificationRepository(d.DB), d.Hub)
	users := userService.NewUserService(
		userRepository.NewUserRepository(d.DB),
		userRepository.NewSessionCache(d.Redis, d.Config.SessionCacheTTL),
		notifications, auditLog, []byte(d.Config.JWTSecret), d.Config.SessionTTL)
	contentRepo := contentRepository.NewContentRepository(d.DB)
	contents := contentService.NewContentService(contentRepo, auditLog)
	applications := appService.NewApplicationService(appRepository.NewApplicationRepository(d.DB), contentRepo,
		notifications, auditLog,
		appService.NewResumeStore(d.Config.UploadDir, d.Config.PublicBaseURL, d.Config.MaxResumeBytes),
		appService.NewPaperStore(d.Config.PaperDir, d.Config.PublicBaseURL, d.Config.MaxPaperBytes))
	library := libraryService.NewLibraryService(libraryRepository.NewLibraryRepository(d.DB), notifications)
	engagement := engagementService.NewEngagementService(engagementRepository.NewEngagementRepository(d.DB), notifications)
	dashboards := dashboardService.NewDashboardService(dashboardRepository.NewDashboardRepository(d.DB))

	userH := userHandler.NewUserHandler(users)
	contentH := contentHandler.NewContentHandler(contents, applications)
	appH := appHandler.NewApplicationHandler(applications)
	libraryH := libraryHandler.NewLibraryHandler(library)
	notificationH := notificationHandler.NewNotificationHandler(notifications)
	engagementH := engagementHandler.NewEngagementHandler(engagement)
	dashboardH := dashboardHandler.NewDashboardHandler(dashboards)

	auth := middleware.Auth(users)
	optional := middleware.OptionalAuth(users)
	managers := middleware.RequireRoles(access.RoleEditor, access.RoleAdmin)
	admins := middleware.RequireRoles(access.RoleAdmin)
	feature := func(name string) func(http.Handler) http.Handler {
		return middleware.RequireFeature(d.Flags, name)
	}
	limited := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limited = d.Limiter.Middleware
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Config.AllowedOrigins))
	r.Use(middleware.Observe)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/uploads/resumes/{filename}", serveUpload(d.Config.UploadDir))
	r.Get("/uploads/research_papers/{filename}", serveUpload(d.Config.PaperDir))
	r.With(auth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(d.Hub, w, r, middleware.CurrentUser(r).ID)
	})

	// Account routes keep their historical unprefixed paths.
	r.With(limited).Post("/register", userH.Register)
	r.With(limited).Post("/login", userH.Login)
	r.With(auth).Post("/logout", userH.Logout)
	r.With(auth).Get("/user/profile", userH.Profile)
	r.With(auth).Put("/user/profile", userH.UpdateProfile)
	r.With(auth).Get("/user/validate_session", userH.ValidateSession)
	r.With(auth, middleware.RequireRoles(access.RoleUser)).Post("/request_editor_access", userH.RequestEditorAccess)
	r.With(auth, admins).Get("/admin/access_requests", userH.AccessRequests)
	r.With(auth, admins).Post("/admin/approve_deny_access", userH.DecideAccess)

	r.Route("/api", func(r chi.Router) {
		r.Get("/features", func(w http.ResponseWriter, r *http.Request) {
			response.OK(w, http.StatusOK, map[string]interface{}{"features": d.Flags})
		})
		r.With(optional).Get("/navigation", func(w http.ResponseWriter, r *http.Request) {
			menu := access.Navigation(middleware.CurrentUser(r), d.Flags)
			response.OK(w, http.StatusOK, map[string]interface{}{"layout": menu.Layout, "items": menu.Items})
		})

		for _, kind := range content.AllKinds() {
			kind := kind
			r.Route("/"+kind.Slug, func(r chi.Router) {
				r.Use(feature(kind.Feature))
				r.With(optional).Get("/", contentH.List(kind))
				r.With(optional).Get("/{id}", contentH.Get(kind))
				r.With(auth, managers).Post("/", contentH.Create(kind))
				r.With(auth, managers).Put("/{id}", contentH.Update(kind))
				r.With(auth, managers).Delete("/{id}", contentH.Delete(kind))
				if kind.Positional {
					r.With(auth).Post("/{id}/apply", appH.Apply(kind))
				}
				if kind.Type == content.TypeBlogPost {
					r.With(optional).Get("/{id}/comments", engagementH.Comments(kind.Type))
					r.With(auth).Post("/{id}/comments", engagementH.AddComment(kind.Type))
				}
				if kind.Type == content.TypeResearchPaper {
					r.With(auth).Post("/submit/upload-pdf", appH.UploadPaper)
					r.With(auth).Post("/submit-for-review", appH.SubmitForReview)
					r.With(auth, managers).Get("/pending-reviews", appH.PendingReviews)
					r.With(auth, managers).Post("/{id}/review", appH.Review)
				}
			})
		}

		r.With(auth).Post("/upload/resume", appH.UploadResume)

		r.Route("/content/{id}", func(r chi.Router) {
			r.With(optional).Get("/comments", engagementH.Comments(""))
			r.With(auth).Post("/comments", engagementH.AddComment(""))
			r.With(auth).Post("/like", engagementH.ToggleLike)
			r.With(optional).Get("/like-status", engagementH.LikeStatus)
			r.With(auth).Get("/metrics", dashboardH.ContentMetrics)
		})
		r.With(auth).Delete("/comments/{id}", engagementH.DeleteComment)

		r.Group(func(r chi.Router) {
			r.Use(auth, feature(features.Dashboard))
			r.Get("/user/dashboard", dashboardH.User)
			r.With(managers).Get("/editor/dashboard", dashboardH.Editor)
			r.With(managers).Get("/editor/analytics", dashboardH.Analytics)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, feature(features.Applications))
			r.Get("/user/applications/jobs", appH.ListMine(content.Jobs))
			r.Get("/user/applications/internships", appH.ListMine(content.Internships))
			r.Get("/user/applications/research-papers", appH.ListSubmissions)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth, feature(features.ManageApplications))
			r.With(admins).Get("/admin/applications", appH.ListForAdmin)
			r.With(managers).Get("/editor/applications/jobs", appH.ListForEditor(content.Jobs))
			r.With(managers).Get("/editor/applications/internships", appH.ListForEditor(content.Internships))
		})
		r.With(auth, managers).Put("/job-applications/{id}/status", appH.UpdateStatus(content.Jobs))
		r.With(auth, managers).Put("/internship-applications/{id}/status", appH.UpdateStatus(content.Internships))

		r.With(auth, feature(features.PersonalLibrary)).Get("/user/saved-content", libraryH.List)
		r.With(auth).Post("/user/save-content", libraryH.Save)
		r.With(auth).Delete("/user/unsave-content/{contentId}", libraryH.Unsave)

		r.With(auth, feature(features.Notifications)).Get("/notifications", notificationH.List)
		r.With(auth).Put("/notifications/read-all", notificationH.MarkAllRead)
		r.With(auth).Put("/notifications/{id}/read", notificationH.MarkRead)
		r.With(auth).Delete("/notifications/{id}", notificationH.Delete)
	})

	return r
}

// serveUpload serves one stored PDF from dir by file name. Anything that is
// not a plain file name is treated as missing.
func serveUpload(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
			response.Error(w, http.StatusNotFound, "File not found")
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}
