// Package branding holds product naming shared by pages and services.
package branding

// AppName is the product name shown in page titles and navigation.
const AppName = "Pharmadesk"

// TitleSeparator joins a page title and the product name.
const TitleSeparator = " | "
