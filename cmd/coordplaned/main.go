// Command coordplaned runs coordplane's HTTP coordination plane: the
// node/share/user/session/webauthn/upload stores behind the request
// façade (internal/facade), bound to the HTTP surface by
// internal/httpapi, fronted by internal/shield's middleware stack.
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	_ "modernc.org/sqlite"

	"github.com/vaultmesh/coordplane/internal/audit"
	"github.com/vaultmesh/coordplane/internal/dbopen"
	"github.com/vaultmesh/coordplane/internal/facade"
	"github.com/vaultmesh/coordplane/internal/httpapi"
	"github.com/vaultmesh/coordplane/internal/legacyupload"
	"github.com/vaultmesh/coordplane/internal/nodestore"
	"github.com/vaultmesh/coordplane/internal/safeio"
	"github.com/vaultmesh/coordplane/internal/sessionstore"
	"github.com/vaultmesh/coordplane/internal/sharestore"
	"github.com/vaultmesh/coordplane/internal/shield"
	_ "github.com/vaultmesh/coordplane/internal/sqltrace"
	"github.com/vaultmesh/coordplane/internal/upload"
	"github.com/vaultmesh/coordplane/internal/userstore"
	"github.com/vaultmesh/coordplane/internal/webauthnstore"
)

func main() {
	logLevel := env("LOG_LEVEL", "info")
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	auditPath := env("AUDIT_DB", "db/audit.db")
	auditDB, err := dbopen.Open(auditPath,
		dbopen.WithMkdirAll(), dbopen.WithTrace(),
		dbopen.WithSchema(audit.Schema), dbopen.WithSchema(shield.Schema))
	if err != nil {
		slog.Error("audit db", "error", err)
		os.Exit(1)
	}
	defer auditDB.Close()

	auditLogger := audit.NewLogger(auditDB, 1000)
	defer auditLogger.Close()

	s3Endpoint := os.Getenv("S3_ENDPOINT")
	core, err := minio.NewCore(s3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("S3_AK_ID"), os.Getenv("S3_AK_SECRET"), ""),
		Secure: true,
		Region: os.Getenv("S3_REGION"),
	})
	if err != nil {
		slog.Error("minio client", "error", err)
		os.Exit(1)
	}
	objectStore := upload.NewMinioObjectStore(core, os.Getenv("S3_BUCKET"))

	svc := &facade.Service{
		Nodes:    nodestore.New(),
		Shares:   sharestore.New(),
		Users:    userstore.New(),
		Sessions: sessionstore.New(),
		WebAuthn: webauthnstore.New(),
		Uploads:  upload.NewCoordinator(objectStore),
		Audit:    auditLogger,
	}

	api := &httpapi.API{Facade: svc, Uploads: svc.Uploads}

	if dir := os.Getenv("LEGACY_UPLOAD_DIR"); dir != "" {
		token := []byte(env("LEGACY_UPLOAD_TOKEN", ""))
		appender, err := legacyupload.NewAppender(dir, token)
		if err != nil {
			slog.Error("legacy upload appender", "error", err)
			os.Exit(1)
		}
		api.Legacy = appender
	}

	bearerToken := os.Getenv("BEARER_TOKEN")
	if bearerToken == "" {
		slog.Error("BEARER_TOKEN is required")
		os.Exit(1)
	}
	if err := safeio.ValidateSecret([]byte(bearerToken)); err != nil {
		slog.Error("BEARER_TOKEN", "error", err)
		os.Exit(1)
	}

	maxBody, err := strconv.ParseInt(env("MAX_JSON_BODY", "16777216"), 10, 64)
	if err != nil {
		maxBody = 16 << 20
	}
	middlewares, maintenance := shield.DefaultStack(auditDB, maxBody)
	maintenance.StartReloader(ctx.Done())

	var handler http.Handler = httpapi.NewRouter(api)
	handler = shield.BearerAuth([]byte(bearerToken))(handler)
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	port := env("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		var serveErr error
		if env("USE_TLS", "false") == "true" {
			certDir := filepath.Join("/etc/letsencrypt/live", os.Getenv("DOMAIN"))
			cert, err := tls.LoadX509KeyPair(filepath.Join(certDir, "fullchain.pem"), filepath.Join(certDir, "privkey.pem"))
			if err != nil {
				slog.Error("load tls cert", "error", err)
				os.Exit(1)
			}
			srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
			serveErr = srv.ListenAndServeTLS("", "")
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("server error", "error", serveErr)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
