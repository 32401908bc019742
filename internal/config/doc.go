// Package config manages persistent user settings stored under ~/.treads/.
package config
