// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertContains fails the test if body does not contain want.
func AssertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// SampleBankCSV is a small slice of the bank-marketing dataset used by the
// live dashboard tests.
const SampleBankCSV = `age,job,marital,education,balance
30,unemployed,married,primary,1787
33,services,married,secondary,4789
35,management,single,tertiary,1350
30,management,married,tertiary,1476
59,blue-collar,married,secondary,0
39,services,married,secondary,9374
41,admin.,divorced,secondary,270
43,services,married,secondary,264
`

// SampleMPGCSV is a small slice of the cleaned auto-MPG dataset.
const SampleMPGCSV = `mpg,cylinders,displacement,horsepower,weight,acceleration,model_year,origin
18.0,8,307.0,130.0,3504,12.0,70,1
15.0,8,350.0,165.0,3693,11.5,70,1
18.0,8,318.0,150.0,3436,11.0,70,1
16.0,8,304.0,150.0,3433,12.0,70,1
17.0,8,302.0,140.0,3449,10.5,70,1
27.0,4,97.0,88.0,2130,14.5,71,3
26.0,4,97.0,46.0,1835,20.5,70,2
`

// SampleStocksCSV is a small slice of the 5-year stock dataset.
const SampleStocksCSV = `date,open,high,low,close,volume,Name
2013-02-08,15.07,15.12,14.63,14.75,8407500,AAL
2013-02-11,14.89,15.01,14.26,14.46,8882000,AAL
2013-02-08,67.71,68.40,66.89,67.85,1593300,AAP
2013-02-11,68.07,68.56,66.83,68.56,1905300,AAP
2013-02-08,45.07,45.35,45.00,45.08,1824755,ABT
2013-02-11,45.17,45.18,44.45,44.62,2915405,ABT
`
