package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolattend/internal/attendance"
	"schoolattend/internal/auth"
	"schoolattend/internal/cloudinary"
	"schoolattend/internal/config"
	"schoolattend/internal/geo"
	"schoolattend/internal/httpmiddleware"
	"schoolattend/internal/locationclient"
	"schoolattend/internal/notify"
	"schoolattend/internal/qr"
	"schoolattend/internal/queue"
	"schoolattend/internal/report"
	"schoolattend/internal/schoolday"
	"schoolattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	var (
		storage attendance.Storage
		repo    *attendance.Repository
		db      *store.DB
	)
	if cfg.StoreBackend == "memory" {
		log.Println("using in-memory store (records are lost on restart)")
		storage = attendance.NewMemStore()
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		repo = attendance.NewRepository(db.Client)
		storage = repo
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "schoolattend:notifications")
	}

	opts := []attendance.Option{
		attendance.WithNotifier(notify.NewQueueNotifier(q)),
	}
	if cfg.WindowEnabled {
		opts = append(opts, attendance.WithWindow(schoolday.Policy{
			WindowStartHour: cfg.WindowStartHour,
			WindowEndHour:   cfg.WindowEndHour,
		}))
	}
	if cfg.GeofenceEnabled {
		opts = append(opts, attendance.WithGeofence(geo.Zone{
			Center:   geo.Point{Lat: cfg.SchoolLat, Lon: cfg.SchoolLon},
			RadiusKm: cfg.GeofenceKm,
		}))
	}
	svc := attendance.NewService(storage, opts...)
	reports := report.New(storage)
	location := locationclient.New(cfg.LocationURL, cfg.LocationSkip)

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured, student photos disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil || cfg.StoreBackend == "memory"
		locationHealthy := location.Health(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy || !locationHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy, "location": locationHealthy})
	})

	r.POST("/v1/devices/register", func(c *gin.Context) {
		var req struct {
			DeviceID string `json:"device_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if repo != nil {
			if err := repo.UpsertDevice(c.Request.Context(), req.DeviceID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		tokens, err := auth.Issue(req.DeviceID, "scanner", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		if repo != nil {
			_ = repo.SaveRefreshToken(c.Request.Context(), req.DeviceID, tokens.RefreshToken, tokens.RefreshExp)
		}

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.DeviceAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/students", func(c *gin.Context) {
		var req struct {
			StudentID     string  `json:"student_id" binding:"required"`
			Name          string  `json:"name" binding:"required"`
			Class         string  `json:"class" binding:"required"`
			Section       string  `json:"section"`
			GuardianEmail *string `json:"guardian_email"`
			Photo         string  `json:"photo"` // base64 data URL, optional
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		st := attendance.Student{
			ID:            req.StudentID,
			Name:          req.Name,
			Class:         req.Class,
			Section:       req.Section,
			GuardianEmail: req.GuardianEmail,
		}
		if req.Photo != "" && cdnClient != nil {
			result, err := cdnClient.UploadBase64(req.Photo)
			if err != nil {
				log.Printf("photo upload failed for %s: %v", req.StudentID, err)
			} else {
				st.PhotoURL = &result.SecureURL
			}
		}

		created, err := svc.Register(c.Request.Context(), st)
		if err != nil {
			c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
			return
		}

		payload, err := qr.Encode(created.ID, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"student": created, "qr_payload": payload})
	})

	authGroup.PATCH("/students/:id/contact", func(c *gin.Context) {
		var req struct {
			GuardianEmail *string `json:"guardian_email"`
			Photo         string  `json:"photo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var photoURL *string
		if req.Photo != "" && cdnClient != nil {
			result, err := cdnClient.UploadBase64(req.Photo)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
				return
			}
			photoURL = &result.SecureURL
		}

		if err := svc.UpdateContact(c.Request.Context(), c.Param("id"), req.GuardianEmail, photoURL); err != nil {
			c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
	})

	// Multipart photo upload for an already-registered student; the stored
	// photo reference becomes the Cloudinary URL.
	authGroup.POST("/students/:id/photo", func(c *gin.Context) {
		if cdnClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage not configured"})
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}

		result, err := cdnClient.UploadBytes(data, header.Filename)
		if err != nil {
			log.Printf("photo upload failed for %s: %v", c.Param("id"), err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "photo upload failed"})
			return
		}

		if err := svc.UpdateContact(c.Request.Context(), c.Param("id"), nil, &result.SecureURL); err != nil {
			c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "bytes": result.Bytes})
	})

	authGroup.GET("/students", func(c *gin.Context) {
		students, err := storage.ListStudents(c.Request.Context(), attendance.StudentFilter{
			Class:   c.Query("class"),
			Section: c.Query("section"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": students})
	})

	authGroup.POST("/checkins/qr", func(c *gin.Context) {
		var req struct {
			Payload  string `json:"payload" binding:"required"`
			DeviceID string `json:"device_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !deviceMatches(c, req.DeviceID) {
			return
		}

		p, err := qr.Decode(req.Payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := svc.Mark(c.Request.Context(), attendance.MarkRequest{
			StudentID: p.StudentID,
			Source:    attendance.SourceQRScan,
			DeviceID:  req.DeviceID,
		})
		if err != nil {
			c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"record": rec})
	})

	authGroup.POST("/checkins/geo", func(c *gin.Context) {
		var req struct {
			StudentID string     `json:"student_id" binding:"required"`
			DeviceID  string     `json:"device_id" binding:"required"`
			Location  *geo.Point `json:"location"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !deviceMatches(c, req.DeviceID) {
			return
		}

		// Absent location fails closed inside the service.
		loc := req.Location
		if loc == nil {
			loc = location.Current(c.Request.Context())
		}

		rec, err := svc.Mark(c.Request.Context(), attendance.MarkRequest{
			StudentID: req.StudentID,
			Source:    attendance.SourceGeofenced,
			Location:  loc,
			DeviceID:  req.DeviceID,
		})
		if err != nil {
			c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"record": rec})
	})

	authGroup.POST("/attendance/manual", func(c *gin.Context) {
		var req struct {
			DeviceID string                   `json:"device_id" binding:"required"`
			Entries  []attendance.RosterEntry `json:"entries" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !deviceMatches(c, req.DeviceID) {
			return
		}

		outcomes := svc.MarkRoster(c.Request.Context(), req.Entries, req.DeviceID)
		c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
	})

	authGroup.GET("/reports/daily", func(c *gin.Context) {
		day := c.Query("date")
		if day == "" {
			day = attendance.DayKey(time.Now())
		} else if _, err := time.Parse("2006-01-02", day); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		rows, err := reports.Daily(c.Request.Context(), day)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if c.Query("format") == "csv" {
			c.Header("Content-Disposition", "attachment; filename=attendance_report_"+day+".csv")
			c.Header("Content-Type", "text/csv")
			if err := report.WriteCSV(c.Writer, rows); err != nil {
				log.Printf("csv render failed: %v", err)
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": day, "groups": rows})
	})

	authGroup.GET("/students/:id/history", func(c *gin.Context) {
		limit := 30
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		h, err := reports.StudentHistory(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, h)
	})

	authGroup.GET("/stats", func(c *gin.Context) {
		today := attendance.DayKey(time.Now())
		if repo != nil {
			st, err := repo.SystemStats(c.Request.Context(), today)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, st)
			return
		}

		students, err := storage.ListStudents(c.Request.Context(), attendance.StudentFilter{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		records, err := storage.ListAttendance(c.Request.Context(), today)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		classes := map[string]struct{}{}
		for _, s := range students {
			classes[s.Class] = struct{}{}
		}
		c.JSON(http.StatusOK, attendance.Stats{
			TotalStudents: len(students),
			TotalClasses:  len(classes),
			RecordsToday:  len(records),
			Day:           today,
		})
	})

	if repo != nil {
		authGroup.GET("/classes", func(c *gin.Context) {
			classes, err := repo.ListClasses(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"classes": classes})
		})
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// deviceMatches rejects the request when the bearer token was issued to a
// different device.
func deviceMatches(c *gin.Context, deviceID string) bool {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(auth.Claims)
	if claims.DeviceID != "" && claims.DeviceID != deviceID {
		c.JSON(http.StatusForbidden, gin.H{"error": "device mismatch"})
		return false
	}
	return true
}

// rejectionStatus maps the expected marking rejections to HTTP statuses.
// Anything unrecognized is a storage fault.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, attendance.ErrUnknownStudent):
		return http.StatusNotFound
	case errors.Is(err, attendance.ErrDuplicateAttendance), errors.Is(err, attendance.ErrStudentExists):
		return http.StatusConflict
	case errors.Is(err, attendance.ErrOutsideWindow), errors.Is(err, attendance.ErrOutsideGeofence):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
