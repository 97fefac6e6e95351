package integration_test

const (
	dbName         = "seat_reservation"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"

	TestEventID  = "concert-2025"
	TestUserID   = "user-1"
	TestCategory = "General"
)
