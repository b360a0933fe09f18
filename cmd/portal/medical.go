package main

import (
	"context"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carelink/healthcare-portal/internal/api"
	"github.com/carelink/healthcare-portal/internal/core/service"
	mongodb "github.com/carelink/healthcare-portal/internal/infrastructure/db/mongo"
	redisdb "github.com/carelink/healthcare-portal/internal/infrastructure/db/redis"
	httpinfra "github.com/carelink/healthcare-portal/internal/infrastructure/http"
	"github.com/carelink/healthcare-portal/internal/infrastructure/http/client"
	"github.com/carelink/healthcare-portal/internal/infrastructure/scheduler"
)

const medicalServiceName = "medical-service"

// medical holds the wired medical-side services.
type medical struct {
	profiles     *service.ProfileService
	appointments *service.AppointmentService
	care         *service.CareService
	directory    *service.DirectoryService
	notifier     *service.NotifierService
	audit        *mongodb.AuditRepository
	authClient   *client.AuthClient
}

func (a *app) buildMedical(ctx context.Context, db *mongo.Database) (*medical, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}

	patients := mongodb.NewPatientRepository(db)
	doctors := mongodb.NewDoctorRepository(db)
	appointments := mongodb.NewAppointmentRepository(db)
	results := mongodb.NewTestResultRepository(db)
	referrals := mongodb.NewReferralRepository(db)
	recommendations := mongodb.NewRecommendationRepository(db)
	audit := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureAllIndexes(ctx, patients, doctors, appointments, results, referrals, recommendations, audit); err != nil {
		return nil, err
	}

	mailer, err := a.notifier()
	if err != nil {
		return nil, err
	}
	authClient := client.NewAuthClient(a.cfg.Medical.AuthServiceURL, a.cfg.ServiceKey, a.cfg.Medical.VerifyTimeout)

	profiles := service.NewProfileService(patients, doctors, authClient, a.log)
	booking := service.NewAppointmentService(appointments, patients, doctors, profiles, mailer, loc, a.log)
	return &medical{
		profiles:     profiles,
		appointments: booking,
		care:         service.NewCareService(appointments, patients, doctors, results, referrals, recommendations, profiles, mailer, a.log),
		directory:    service.NewDirectoryService(appointments, patients, doctors, results, referrals, profiles, booking, authClient, loc, a.log),
		notifier:     service.NewNotifierService(appointments, patients, doctors, profiles, mailer, loc, a.log),
		audit:        audit,
		authClient:   authClient,
	}, nil
}

func (a *app) jobLock(rdb *goredis.Client) scheduler.Lock {
	if rdb == nil {
		return scheduler.NewMemoryLock()
	}
	owner, _ := os.Hostname()
	return redisdb.NewJobLock(rdb, owner)
}

func newMedicalCmd() *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "medical",
		Short: "Run the medical service and the scheduled notifier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, medicalServiceName)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.cfg.ValidateMedical(); err != nil {
				return err
			}

			db, err := a.connectMongo(ctx, a.cfg.Medical.Database)
			if err != nil {
				return err
			}
			rdb, err := a.connectRedis(ctx)
			if err != nil {
				return err
			}
			m, err := a.buildMedical(ctx, db)
			if err != nil {
				return err
			}

			if !noScheduler {
				loc, _ := a.cfg.Location()
				sched, err := scheduler.New(scheduler.Config{
					ReminderSpec: a.cfg.Medical.ReminderCron,
					DigestSpec:   a.cfg.Medical.DigestCron,
					Location:     loc,
				}, m.notifier, a.jobLock(rdb), a.log)
				if err != nil {
					return err
				}
				sched.Start()
				a.onClose(func(ctx context.Context) error {
					sched.Stop(ctx)
					return nil
				})
			}

			e := api.NewMedicalRouter(httpinfra.EngineConfig{
				Service:     medicalServiceName,
				Subsystem:   "medical",
				CORSOrigins: a.cfg.CORSOrigins,
				Mongo:       db,
				Redis:       rdb,
				Log:         a.log,
			}, api.MedicalDeps{
				Verifier:     m.authClient,
				Profiles:     m.profiles,
				Appointments: m.appointments,
				Care:         m.care,
				Directory:    m.directory,
				Audit:        m.audit,
				ServiceKey:   a.cfg.ServiceKey,
				General:      a.generalLimiter(rdb),
			})
			return a.serve(ctx, e, a.cfg.Medical.Port)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve HTTP only; another replica runs the daily jobs")
	return cmd
}
