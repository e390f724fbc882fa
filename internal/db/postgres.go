package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"nutrition-bot/internal/models"
)

type Config struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg Config) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{pool: pool}
	if err := db.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *PostgresDB) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS user_profile (
        user_id BIGINT PRIMARY KEY,
        age INTEGER NOT NULL,
        weight DOUBLE PRECISION NOT NULL,
        height DOUBLE PRECISION NOT NULL,
        sex TEXT NOT NULL,
        activity_level TEXT NOT NULL,
        protein_goal DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );

    CREATE TABLE IF NOT EXISTS meals (
        id BIGSERIAL PRIMARY KEY,
        user_id BIGINT NOT NULL,
        date DATE NOT NULL,
        timestamp TIMESTAMPTZ NOT NULL,
        food_description TEXT NOT NULL,
        calories DOUBLE PRECISION NOT NULL,
        protein DOUBLE PRECISION NOT NULL,
        carbs DOUBLE PRECISION NOT NULL,
        fat DOUBLE PRECISION NOT NULL,
        fiber DOUBLE PRECISION NOT NULL,
        raw_analysis TEXT NOT NULL DEFAULT ''
    );

    CREATE INDEX IF NOT EXISTS idx_meals_user_date ON meals(user_id, date);
    `

	_, err := db.pool.Exec(ctx, schema)
	return err
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetProfile returns the stored profile, or nil when setup has never
// completed for this user.
func (db *PostgresDB) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	query := `
        SELECT user_id, age, weight, height, sex, activity_level, protein_goal, created_at
        FROM user_profile
        WHERE user_id = $1
    `

	var profile models.UserProfile
	err := db.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.Age, &profile.WeightKg, &profile.HeightCm,
		&profile.Sex, &profile.ActivityLevel, &profile.ProteinGoal,
		&profile.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// SaveProfile upserts the full profile record.
func (db *PostgresDB) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	query := `
        INSERT INTO user_profile (user_id, age, weight, height, sex, activity_level, protein_goal)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id) DO UPDATE
        SET age = $2, weight = $3, height = $4, sex = $5, activity_level = $6, protein_goal = $7
    `

	_, err := db.pool.Exec(ctx, query,
		profile.UserID, profile.Age, profile.WeightKg, profile.HeightCm,
		profile.Sex, profile.ActivityLevel, profile.ProteinGoal,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

func (db *PostgresDB) AppendMeal(ctx context.Context, meal *models.MealRecord) error {
	query := `
        INSERT INTO meals (user_id, date, timestamp, food_description, calories, protein, carbs, fat, fiber, raw_analysis)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `

	err := db.pool.QueryRow(ctx, query,
		meal.UserID, meal.Date, meal.Timestamp, meal.Description,
		meal.Calories, meal.Protein, meal.Carbs, meal.Fat, meal.Fiber,
		meal.RawAnalysis,
	).Scan(&meal.ID)
	if err != nil {
		return fmt.Errorf("failed to append meal: %w", err)
	}

	return nil
}

// DailyTotals sums all meals for the user on the given calendar date.
// Days without meals yield all-zero totals.
func (db *PostgresDB) DailyTotals(ctx context.Context, userID int64, date time.Time) (models.DailyTotals, error) {
	query := `
        SELECT COALESCE(SUM(calories), 0), COALESCE(SUM(protein), 0),
               COALESCE(SUM(carbs), 0), COALESCE(SUM(fat), 0), COALESCE(SUM(fiber), 0)
        FROM meals
        WHERE user_id = $1 AND date = $2
    `

	var totals models.DailyTotals
	err := db.pool.QueryRow(ctx, query, userID, date).Scan(
		&totals.Calories, &totals.Protein, &totals.Carbs, &totals.Fat, &totals.Fiber,
	)
	if err != nil {
		return models.DailyTotals{}, fmt.Errorf("failed to sum daily totals: %w", err)
	}

	return totals, nil
}

// MostRecentMeal returns the newest meal by confirmation timestamp, or nil
// when the user has no meals.
func (db *PostgresDB) MostRecentMeal(ctx context.Context, userID int64) (*models.MealRecord, error) {
	query := `
        SELECT id, user_id, date, timestamp, food_description, calories, protein, carbs, fat, fiber, raw_analysis
        FROM meals
        WHERE user_id = $1
        ORDER BY timestamp DESC
        LIMIT 1
    `

	var meal models.MealRecord
	err := db.pool.QueryRow(ctx, query, userID).Scan(
		&meal.ID, &meal.UserID, &meal.Date, &meal.Timestamp, &meal.Description,
		&meal.Calories, &meal.Protein, &meal.Carbs, &meal.Fat, &meal.Fiber,
		&meal.RawAnalysis,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent meal: %w", err)
	}

	return &meal, nil
}

func (db *PostgresDB) DeleteMeal(ctx context.Context, id int64) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	return nil
}
