package testutil

// Test user information used across all test helpers.
const (
	// TestAuthor is the default author name for test commits.
	TestAuthor = "Test User"

	// TestEmail is the default email for test commits.
	TestEmail = "test@example.com"
)

// TestFileContent is sample content for README files.
const TestFileContent = "# Test Repository\n\nThis is a test repository.\n"
