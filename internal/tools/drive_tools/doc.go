// Package drive_tools provides search_files and read_file for Google Drive.
package drive_tools
