package encoder

// Encoder 配置编解码器接口
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
	Decode(d []byte, v interface{}) error
	String() string
}
