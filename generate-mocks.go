//go:generate moq -out mock_retrymanager_test.go . RetryManager RetryController
//go:generate moq -out mock_dispatcher_test.go -pkg cobblecorex ./pebblex Dispatcher

package cobblecorex
