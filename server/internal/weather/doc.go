// Package weather fetches the outdoor dewpoint from the National Weather
// Service gridpoint API and keeps the latest value cached for the
// /outdoor-dewpoint endpoint.
package weather
