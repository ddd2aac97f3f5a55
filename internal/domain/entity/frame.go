package entity

// Frame кадр, извлечённый из видео и сохранённый на диск.
type Frame struct {
	Path          string `json:"path"`
	SequenceIndex int    `json:"sequence_index"`
}

// FramePaths возвращает пути кадров в исходном порядке.
func FramePaths(frames []Frame) []string {
	paths := make([]string, 0, len(frames))
	for _, f := range frames {
		paths = append(paths, f.Path)
	}
	return paths
}
