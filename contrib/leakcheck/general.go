package leakcheck

func EnableAll() {
	EnableTransportTracking()
}

func ReportAll(expectedGoroutineCount int) bool {
	testsPassed := true
	if !ReportLeakedTransports() {
		testsPassed = false
	}
	if !ReportLeakedGoroutines(expectedGoroutineCount) {
		testsPassed = false
	}
	return testsPassed
}
