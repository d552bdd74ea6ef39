package env

import "os"

func IsGithubAction() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func IsGithubDebugMode() bool {
	return os.Getenv("RUNNER_DEBUG") == "1" || os.Getenv("RUNNER_DEBUG") == "true"
}

// IsDebugMode reports whether debug logging was requested through the environment, either
// directly or by re-running a GitHub Actions job with debug logging.
func IsDebugMode() bool {
	return os.Getenv("SCAFFOLD_DEBUG") == "true" || IsGithubDebugMode()
}

// Returns true when sinks should not take the inter-process lock on their target directory.
func IsConcurrencyLockDisabled() bool {
	return os.Getenv("SCAFFOLD_CONCURRENCY_LOCK_DISABLED") == "true"
}
