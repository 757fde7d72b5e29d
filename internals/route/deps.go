package routes

import (
	"context"
	"log"
	"strings"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"proctorx_backend/internals/clients/judge0"
	"proctorx_backend/internals/configs"
	analyticsService "proctorx_backend/internals/features/analytics/service"
	examModel "proctorx_backend/internals/features/exams/model"
	examRepo "proctorx_backend/internals/features/exams/repository"
	examScheduler "proctorx_backend/internals/features/exams/scheduler"
	examService "proctorx_backend/internals/features/exams/service"
	notif "proctorx_backend/internals/features/notifications/service"
	proctorModel "proctorx_backend/internals/features/proctoring/model"
	"proctorx_backend/internals/features/proctoring/realtime"
	proctorRepo "proctorx_backend/internals/features/proctoring/repository"
	proctorService "proctorx_backend/internals/features/proctoring/service"
	authModel "proctorx_backend/internals/features/users/auth/model"
	"proctorx_backend/internals/features/users/auth/provider"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
	authScheduler "proctorx_backend/internals/features/users/auth/scheduler"
	authService "proctorx_backend/internals/features/users/auth/service"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	adminService "proctorx_backend/internals/features/users/user_profiles/service"
	"proctorx_backend/internals/helpers/storage"
)

// Deps is every long-lived component the routes are built from.
type Deps struct {
	DB *gorm.DB // nil with DB_DRIVER=memory

	Profiles  profileRepo.Repository
	Blacklist authRepo.BlacklistRepository
	Exams     examRepo.Repository
	Proctor   proctorRepo.Repository

	Judge0 *judge0.Client
	Hub    *realtime.Hub

	Auth       *authService.Service
	Admin      *adminService.Service
	Exam       *examService.Service
	Proctoring *proctorService.Service
	Analytics  *analyticsService.Service

	notifier *notif.Async
	crons    []*cron.Cron
}

// Tables lists every model in migration order.
func Tables() []any {
	out := []any{&profileModel.UserProfileModel{}, &authModel.AuthCredential{}, &authModel.TokenBlacklist{}}
	out = append(out, examModel.Tables()...)
	return append(out, proctorModel.Tables()...)
}

// MemoryDriver reports whether DB_DRIVER selects the in-process repositories.
func MemoryDriver() bool {
	return strings.EqualFold(configs.GetEnv("DB_DRIVER", "postgres"), "memory")
}

// BuildDeps wires repositories, external clients and services.
// db may be nil, in which case the in-memory repositories are used.
func BuildDeps(ctx context.Context, db *gorm.DB) (*Deps, error) {
	d := &Deps{DB: db}

	var creds authRepo.CredentialRepository
	if db == nil {
		log.Println("[WARN] DB_DRIVER=memory, data lives only as long as the process")
		d.Profiles = profileRepo.NewMemoryRepository()
		d.Blacklist = authRepo.NewMemoryBlacklist(configs.JWTSecret)
		d.Exams = examRepo.NewMemoryRepository()
		d.Proctor = proctorRepo.NewMemoryRepository()
		creds = authRepo.NewMemoryCredentials()
	} else {
		d.Profiles = profileRepo.NewGormRepository(db)
		d.Blacklist = authRepo.NewGormBlacklist(db, configs.JWTSecret)
		d.Exams = examRepo.NewGormRepository(db)
		d.Proctor = proctorRepo.NewGormRepository(db)
		creds = authRepo.NewGormCredentials(db)
	}

	store, err := storage.NewFromEnv()
	if err != nil {
		return nil, err
	}

	d.Hub = realtime.NewHub()
	bridge, err := realtime.NewRedisBridgeFromEnv(ctx)
	if err != nil {
		log.Printf("[WARN] realtime: redis bridge disabled: %v", err)
	} else if bridge != nil {
		if err := d.Hub.AttachBridge(ctx, bridge); err != nil {
			log.Printf("[WARN] realtime: attach bridge: %v", err)
			_ = bridge.Close()
		}
	}

	d.notifier = notif.NewAsync(notif.NewFromEnv(), configs.GetEnvInt("NOTIFY_BUFFER", 256))
	d.Judge0 = judge0.NewClientFromEnv()

	d.Auth = authService.New(provider.NewFromEnv(creds), d.Profiles, d.Blacklist)
	d.Proctoring = proctorService.New(d.Proctor, d.Exams, d.Profiles, store, d.Hub, d.notifier)
	d.Exam = examService.New(d.Exams, d.Profiles, d.Judge0, d.Proctoring, d.notifier)
	d.Exam.RunBudget = d.Judge0.RunBudget()
	d.Admin = adminService.New(d.Profiles, d.Exams)
	d.Analytics = analyticsService.New(d.Exams, d.Proctor)
	return d, nil
}

// StartSchedulers launches the background jobs; Close stops them.
func (d *Deps) StartSchedulers() {
	if c, err := authScheduler.StartBlacklistCleanupScheduler(d.Auth); err != nil {
		log.Printf("[ERROR] blacklist cleanup scheduler: %v", err)
	} else {
		d.crons = append(d.crons, c)
	}
	if c, err := examScheduler.StartAttemptExpiryScheduler(d.Exam); err != nil {
		log.Printf("[ERROR] attempt expiry scheduler: %v", err)
	} else {
		d.crons = append(d.crons, c)
	}
}

func (d *Deps) Close() {
	for _, c := range d.crons {
		<-c.Stop().Done()
	}
	if err := d.Hub.Close(); err != nil {
		log.Printf("[WARN] realtime close: %v", err)
	}
	d.notifier.Close()
}
